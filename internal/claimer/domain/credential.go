package domain

import "time"

// RefreshSkew is how long before the recorded expiry a credential is
// already treated as expired, so a refresh happens before the storefront
// starts rejecting the token mid-cycle.
const RefreshSkew = 5 * time.Minute

// Credential holds the bearer tokens for the storefront account session.
// It is exclusively owned by the claimer service; the session store is its
// durable backing, not a second owner.
type Credential struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	ExpiresAt    time.Time
}

// IsZero reports whether no credential has ever been issued.
func (c Credential) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Valid reports whether the access token can still be presented at the
// given instant, accounting for the refresh skew.
func (c Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-RefreshSkew))
}
