package service

import (
	"context"
	"fmt"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/pkg/slogx"
)

// freeOffers fetches the promotional feed and filters it down to free,
// not-yet-claimed offers, preserving feed order. Read-only: the ledger is
// never touched here. Callers hold the mutex.
func (c *Claimer) freeOffers(ctx context.Context) ([]domain.Offer, error) {
	log := slogx.FromContext(ctx)

	if !c.ensureAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}

	elements, err := c.client.FreeGames(ctx, c.cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch free games feed: %w", err)
	}

	offers := make([]domain.Offer, 0, len(elements))
	for _, el := range elements {
		if !el.IsFree() {
			continue
		}

		claimed, err := c.store.ClaimedOffers().Contains(ctx, el.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to consult claim ledger: %w", err)
		}
		if claimed {
			log.Debug("offer already claimed, skipping", "offer_id", el.ID, "title", el.Title)
			continue
		}

		offers = append(offers, domain.Offer{
			ID:          el.ID,
			Title:       el.Title,
			Namespace:   el.Namespace,
			Description: el.Description,
			URL:         c.client.StorePageURL(el.URLSlug),
		})
	}

	log.Info("free offers discovered", "count", len(offers))
	return offers, nil
}
