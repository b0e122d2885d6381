package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/pkg/idx"
	"github.com/sagelock/freeclaim/pkg/slogx"
)

// claim runs the claim transaction for one offer. The ledger write happens
// only after the storefront confirmed the order, and before this returns
// nil; that ordering is the whole duplicate-prevention guarantee. There is
// deliberately no client-side short-circuit for an already-claimed id: a
// racing caller gets a real transaction and the storefront's rejection.
// Callers hold the mutex.
func (c *Claimer) claim(ctx context.Context, offer domain.Offer) error {
	log := slogx.FromContext(ctx)

	if err := offer.Validate(); err != nil {
		return fmt.Errorf("refusing malformed catalog entry: %w", err)
	}

	if !c.ensureAuthenticated(ctx) {
		return ErrNotAuthenticated
	}

	order, err := c.client.PurchaseOrder(ctx, c.cred.AccessToken, offer.ID, offer.Namespace)
	if err != nil {
		return fmt.Errorf("purchase order failed: %w", err)
	}

	if !order.OrderComplete {
		reason := order.OrderError
		if reason == "" {
			reason = order.OrderResponseCode
		}
		return &ClaimRejectedError{OfferID: offer.ID, Reason: reason}
	}

	claimed := domain.ClaimedOffer{
		ID:        idx.New(),
		OfferID:   offer.ID,
		Title:     offer.Title,
		Namespace: offer.Namespace,
		ClaimedAt: time.Now().UTC(),
	}
	if err := c.store.ClaimedOffers().Add(ctx, claimed); err != nil {
		// The storefront granted the offer but the ledger write
		// failed. Surface it as a failure so the operator notices;
		// the next cycle's re-claim will be rejected remotely without
		// touching the ledger.
		return fmt.Errorf("claim confirmed but ledger write failed: %w", err)
	}

	log.Info("offer claimed", "offer_id", offer.ID, "title", offer.Title, "order_number", order.OrderNumber)
	return nil
}
