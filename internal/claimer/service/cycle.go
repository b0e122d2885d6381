package service

import (
	"context"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/pkg/idx"
	"github.com/sagelock/freeclaim/pkg/slogx"
)

// CycleReport summarizes one discover-and-claim cycle for whoever triggered
// it (scheduler or chat command).
type CycleReport struct {
	CycleID idx.ID

	// TwoFactorMethod is set when the cycle halted on a step-up
	// challenge and is waiting for an operator-supplied code.
	TwoFactorMethod string

	Claimed []domain.Offer
	Failed  []CycleFailure
}

// CycleFailure records one offer whose claim did not complete. The rest of
// the cycle continues regardless.
type CycleFailure struct {
	Offer domain.Offer
	Err   error
}

// RunCycle executes one full cycle: ensure authenticated (logging in if
// needed), discover free offers, claim each one in catalog order. Each
// offer commits or fails independently; a crash mid-cycle only loses the
// remaining offers, which the next cycle rediscovers.
//
// A step-up halt is not an error: the report carries the method and the
// process stays alive to accept the code. A rejected login is returned as
// ErrLoginFailed.
func (c *Claimer) RunCycle(ctx context.Context) (*CycleReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := &CycleReport{CycleID: idx.New()}
	ctx = slogx.WithCycleID(ctx, report.CycleID.String())
	log := slogx.FromContext(ctx)

	log.Info("claim cycle starting")

	if !c.ensureAuthenticated(ctx) {
		log.Info("not authenticated, attempting login")

		result := c.login(ctx, c.email, c.password)
		switch result.Status {
		case domain.LoginTwoFactorRequired:
			report.TwoFactorMethod = result.TwoFactorMethod
			log.Warn("cycle suspended on step-up challenge", "method", result.TwoFactorMethod)
			return report, nil
		case domain.LoginFailed:
			return report, ErrLoginFailed
		}
	}

	offers, err := c.freeOffers(ctx)
	if err != nil {
		return report, err
	}
	if len(offers) == 0 {
		log.Info("no new free offers")
		return report, nil
	}

	for _, offer := range offers {
		log.Info("attempting claim", "offer_id", offer.ID, "title", offer.Title)

		if err := c.claim(ctx, offer); err != nil {
			log.Error("claim failed", "offer_id", offer.ID, "title", offer.Title, "error", err)
			report.Failed = append(report.Failed, CycleFailure{Offer: offer, Err: err})
			continue
		}
		report.Claimed = append(report.Claimed, offer)
	}

	log.Info("claim cycle finished", "claimed", len(report.Claimed), "failed", len(report.Failed))
	return report, nil
}
