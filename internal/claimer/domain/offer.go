package domain

import (
	"errors"
	"time"

	"github.com/sagelock/freeclaim/pkg/idx"
)

// ErrInvalidOffer reports a catalog entry missing the fields a claim
// transaction requires.
var ErrInvalidOffer = errors.New("offer is missing id, namespace or title")

// Offer is a single promotional catalog entry. Offers are produced fresh on
// every catalog query and never persisted; only the id of a successfully
// claimed offer enters the ledger.
type Offer struct {
	// ID is the opaque catalog identifier, also the idempotency key for
	// the claim transaction and the ledger.
	ID string

	Title       string
	Namespace   string
	Description string

	// URL is the canonical store page for the offer.
	URL string
}

// Validate checks the fields the claim transaction cannot do without.
func (o Offer) Validate() error {
	if o.ID == "" || o.Namespace == "" || o.Title == "" {
		return ErrInvalidOffer
	}
	return nil
}

// ClaimedOffer is one row of the claimed-items ledger. Membership is
// permanent; there is no removal path.
type ClaimedOffer struct {
	ID        idx.ID
	OfferID   string
	Title     string
	Namespace string
	ClaimedAt time.Time
}
