package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/internal/claimer/store"
	"github.com/sagelock/freeclaim/internal/claimer/storefront"
)

var (
	// ErrNotAuthenticated is returned by operations that need a valid
	// credential when none is available. No network call was made.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginFailed is returned by RunCycle when the automatic login
	// attempt was rejected. Operator attention is required.
	ErrLoginFailed = errors.New("login failed")
)

// ClaimRejectedError is an explicit transactional failure: the storefront
// answered the purchase order but did not mark it complete.
type ClaimRejectedError struct {
	OfferID string
	Reason  string
}

func (e *ClaimRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("claim rejected for offer %s", e.OfferID)
	}
	return fmt.Sprintf("claim rejected for offer %s: %s", e.OfferID, e.Reason)
}

// Claimer owns the storefront account session and the claim workflow. All
// public methods serialize on one mutex, so a scheduled cycle and a manual
// chat-triggered one can never interleave a token refresh with a claim, or
// race past the ledger check together.
type Claimer struct {
	store  store.Store
	client *storefront.Client
	logger *slog.Logger

	email    string
	password string

	// totpSecret, when configured, lets the claimer answer an
	// authenticator step-up challenge without operator input.
	totpSecret string

	mu      sync.Mutex
	cred    domain.Credential
	pending *twoFactorPending
}

// twoFactorPending marks a login suspended on a step-up challenge. At most
// one exists at a time; it is cleared by any completion attempt, accepted
// or rejected.
type twoFactorPending struct {
	method string
}

type ClaimerConfig struct {
	Email      string
	Password   string
	TOTPSecret string
}

// NewClaimer wires the claimer and loads the persisted credential. A
// missing or unreadable stored session degrades to the unauthenticated
// state instead of failing startup.
func NewClaimer(ctx context.Context, st store.Store, client *storefront.Client, logger *slog.Logger, cfg ClaimerConfig) *Claimer {
	c := &Claimer{
		store:      st,
		client:     client,
		logger:     logger,
		email:      cfg.Email,
		password:   cfg.Password,
		totpSecret: cfg.TOTPSecret,
	}

	cred, err := st.Sessions().Get(ctx)
	switch {
	case err == nil:
		c.cred = cred
		logger.Info("loaded persisted session", "account_id", cred.AccountID, "expires_at", cred.ExpiresAt)
	case errors.Is(err, store.ErrNotFound):
		logger.Info("no persisted session, starting unauthenticated")
	default:
		logger.Warn("failed to load persisted session, starting unauthenticated", "error", err)
	}

	return c
}

// EnsureAuthenticated reports whether a valid credential is available,
// transparently refreshing an expired one. It never attempts a full login.
func (c *Claimer) EnsureAuthenticated(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureAuthenticated(ctx)
}

// Login performs the primary credential exchange for the given account.
func (c *Claimer) Login(ctx context.Context, email, password string) domain.LoginResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx, email, password)
}

// CompleteTwoFactor submits a step-up code for the pending challenge. Any
// completion attempt, accepted or rejected, clears the pending state; a
// rejected code requires a fresh Login.
func (c *Claimer) CompleteTwoFactor(ctx context.Context, code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completeTwoFactor(ctx, code)
}

// TwoFactorPending returns the challenge method when a login is suspended
// on a step-up, and false otherwise.
func (c *Claimer) TwoFactorPending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.method, true
}

// FreeOffers returns the currently free, not-yet-claimed offers in catalog
// order. Requires an authenticated session.
func (c *Claimer) FreeOffers(ctx context.Context) ([]domain.Offer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freeOffers(ctx)
}

// Claim executes the claim transaction for one offer. A nil return means
// the order completed and the ledger was durably updated.
func (c *Claimer) Claim(ctx context.Context, offer domain.Offer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claim(ctx, offer)
}

// ClaimedCount reports the ledger size for status reporting.
func (c *Claimer) ClaimedCount(ctx context.Context) (int, error) {
	return c.store.ClaimedOffers().Count(ctx)
}
