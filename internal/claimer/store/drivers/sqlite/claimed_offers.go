package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/pkg/idx"
)

type claimedOffersRepo struct {
	db *sql.DB
}

func (r *claimedOffersRepo) Add(ctx context.Context, claimed domain.ClaimedOffer) error {
	claimedAt := claimed.ClaimedAt
	if claimedAt.IsZero() {
		claimedAt = time.Now().UTC()
	}

	// The ledger is a set keyed by offer id; a second insert for the same
	// offer must not create a duplicate row.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO claimed_offers (id, offer_id, title, namespace, claimed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (offer_id) DO NOTHING`,
		claimed.ID.String(), claimed.OfferID, claimed.Title, claimed.Namespace, claimedAt.UTC())
	return err
}

func (r *claimedOffersRepo) Contains(ctx context.Context, offerID string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM claimed_offers WHERE offer_id = ?`, offerID)

	var n int
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *claimedOffersRepo) List(ctx context.Context) ([]domain.ClaimedOffer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, offer_id, title, namespace, claimed_at
		FROM claimed_offers ORDER BY claimed_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClaimedOffer
	for rows.Next() {
		var (
			rawID string
			c     domain.ClaimedOffer
		)
		if err := rows.Scan(&rawID, &c.OfferID, &c.Title, &c.Namespace, &c.ClaimedAt); err != nil {
			return nil, err
		}
		c.ID = idx.ID(rawID)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *claimedOffersRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM claimed_offers`)

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
