package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
)

// CycleNotifier is whatever relays cycle outcomes to the operator. The
// notification fan-out implements it; tests substitute a recorder.
type CycleNotifier interface {
	OfferClaimed(ctx context.Context, offer domain.Offer) error
	Error(ctx context.Context, msg string) error
	TwoFactorPrompt(ctx context.Context, method string) error
}

// CycleScheduler runs a claim cycle once at startup and then daily at a
// fixed UTC time. It is the only periodic trigger; manual chat triggers go
// straight to the Claimer, whose mutex serializes the two.
type CycleScheduler struct {
	Claimer  *Claimer
	Notifier CycleNotifier
	Logger   *slog.Logger

	// Hour and Minute are the daily run time in UTC.
	Hour   int
	Minute int

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewCycleScheduler(claimer *Claimer, notifier CycleNotifier, logger *slog.Logger, hour, minute int) *CycleScheduler {
	if hour < 0 || hour > 23 {
		hour = 12
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}

	return &CycleScheduler{
		Claimer:  claimer,
		Notifier: notifier,
		Logger:   logger,
		Hour:     hour,
		Minute:   minute,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut the
// worker down gracefully.
func (s *CycleScheduler) Start() {
	go s.run()
	s.Logger.Info("cycle scheduler started",
		"daily_at", fmt.Sprintf("%02d:%02d UTC", s.Hour, s.Minute))
}

// Stop shuts down the worker, waiting for an in-progress cycle to finish.
func (s *CycleScheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("cycle scheduler stopped")
}

func (s *CycleScheduler) run() {
	defer close(s.doneCh)

	// Run once immediately on startup.
	s.runCycle()

	for {
		wait := time.Until(s.nextRun(time.Now().UTC()))
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			s.runCycle()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// nextRun returns the next occurrence of the configured daily time strictly
// after now.
func (s *CycleScheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// runCycle executes one cycle and relays the outcome to the operator.
func (s *CycleScheduler) runCycle() {
	ctx := context.Background()

	report, err := s.Claimer.RunCycle(ctx)
	if err != nil {
		s.Logger.Error("scheduled cycle failed", "error", err)
		if nerr := s.Notifier.Error(ctx, fmt.Sprintf("Claim cycle failed: %v", err)); nerr != nil {
			s.Logger.Error("failed to deliver error notification", "error", nerr)
		}
		return
	}

	if report.TwoFactorMethod != "" {
		if nerr := s.Notifier.TwoFactorPrompt(ctx, report.TwoFactorMethod); nerr != nil {
			s.Logger.Error("failed to deliver step-up prompt", "error", nerr)
		}
		return
	}

	for _, offer := range report.Claimed {
		if nerr := s.Notifier.OfferClaimed(ctx, offer); nerr != nil {
			s.Logger.Error("failed to deliver claim notification", "offer_id", offer.ID, "error", nerr)
		}
	}
	for _, failure := range report.Failed {
		msg := fmt.Sprintf("Failed to claim free offer %q: %v", failure.Offer.Title, failure.Err)
		if nerr := s.Notifier.Error(ctx, msg); nerr != nil {
			s.Logger.Error("failed to deliver failure notification", "offer_id", failure.Offer.ID, "error", nerr)
		}
	}
}
