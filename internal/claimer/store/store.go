package store

import (
	"context"
	"errors"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Sessions() Sessions
	ClaimedOffers() ClaimedOffers

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Sessions is the durable backing for the single account credential.
// There is at most one stored session at a time.
type Sessions interface {
	// Get returns the persisted credential, or ErrNotFound when the
	// claimer has never authenticated.
	Get(ctx context.Context) (domain.Credential, error)

	// Put overwrites the persisted credential. Called after every
	// credential mutation (login, step-up completion, refresh).
	Put(ctx context.Context, cred domain.Credential) error

	// Delete removes the persisted credential.
	Delete(ctx context.Context) error
}

// ClaimedOffers is the claimed-items ledger. Rows are only ever added, and
// only after the storefront confirmed the claim transaction.
type ClaimedOffers interface {
	// Add appends an offer to the ledger. Re-adding an offer id already
	// present is a no-op, so the ledger stays a set.
	Add(ctx context.Context, claimed domain.ClaimedOffer) error

	// Contains reports whether an offer id is in the ledger.
	Contains(ctx context.Context, offerID string) (bool, error)

	// List returns the ledger in claim order (oldest first).
	List(ctx context.Context) ([]domain.ClaimedOffer, error)

	// Count returns the number of claimed offers.
	Count(ctx context.Context) (int, error)
}
