package service

import (
	"context"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/internal/claimer/storefront"
	"github.com/sagelock/freeclaim/pkg/jwtx"
	"github.com/sagelock/freeclaim/pkg/slogx"
)

// defaultTokenTTL is assumed when the token response carries no expires_in
// and the access token itself yields no exp claim.
const defaultTokenTTL = 8 * time.Hour

// ensureAuthenticated implements the valid/refresh/give-up ladder. Callers
// hold the mutex.
func (c *Claimer) ensureAuthenticated(ctx context.Context) bool {
	if c.cred.IsZero() {
		return false
	}
	if c.cred.Valid(time.Now()) {
		return true
	}

	slogx.FromContext(ctx).Info("access token expired, refreshing")
	return c.refresh(ctx)
}

// refresh exchanges the refresh token for a new pair. On any failure the
// stale credential is left untouched so the next ensureAuthenticated call
// retries instead of silently appearing authenticated.
func (c *Claimer) refresh(ctx context.Context) bool {
	log := slogx.FromContext(ctx)

	if c.cred.RefreshToken == "" {
		log.Error("no refresh token available, re-login required")
		return false
	}

	token, err := c.client.Refresh(ctx, c.cred.RefreshToken)
	if err != nil {
		log.Error("token refresh failed", "error", err)
		return false
	}

	c.adoptTokens(ctx, token)
	log.Info("access token refreshed", "expires_at", c.cred.ExpiresAt)
	return true
}

func (c *Claimer) login(ctx context.Context, email, password string) domain.LoginResult {
	log := slogx.FromContext(ctx)

	resp, err := c.client.Login(ctx, email, password)
	if err != nil {
		log.Error("login request failed", "error", err)
		return domain.LoginFailure()
	}

	if resp.TwoFactorRequired {
		c.pending = &twoFactorPending{method: resp.Method}

		if c.totpSecret != "" {
			log.Info("answering step-up challenge with configured authenticator secret")
			code, err := totp.GenerateCode(c.totpSecret, time.Now())
			if err != nil {
				log.Error("failed to generate TOTP code", "error", err)
				return domain.LoginStepUp(resp.Method)
			}
			if c.completeTwoFactor(ctx, code) {
				return domain.LoginOK()
			}
			// completeTwoFactor cleared the pending state; the
			// operator has to restart with a fresh login.
			return domain.LoginFailure()
		}

		return domain.LoginStepUp(resp.Method)
	}

	if err := c.exchange(ctx); err != nil {
		log.Error("credential exchange failed", "error", err)
		return domain.LoginFailure()
	}

	log.Info("logged in", "account_id", c.cred.AccountID)
	return domain.LoginOK()
}

func (c *Claimer) completeTwoFactor(ctx context.Context, code string) bool {
	log := slogx.FromContext(ctx)

	if c.pending == nil {
		log.Warn("no step-up challenge pending, ignoring code")
		return false
	}

	// Any completion attempt resolves the pending challenge.
	c.pending = nil

	if err := c.client.SubmitTwoFactor(ctx, code); err != nil {
		log.Error("step-up code rejected", "error", err)
		return false
	}

	if err := c.exchange(ctx); err != nil {
		log.Error("credential exchange after step-up failed", "error", err)
		return false
	}

	log.Info("step-up completed", "account_id", c.cred.AccountID)
	return true
}

// exchange follows the redirect for an authorization code, trades it for
// tokens and adopts them. Nothing is persisted when any step fails.
func (c *Claimer) exchange(ctx context.Context) error {
	code, err := c.client.AuthorizationCode(ctx)
	if err != nil {
		return err
	}

	token, err := c.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	c.adoptTokens(ctx, token)
	return nil
}

// adoptTokens installs a token response as the current credential and
// persists it. A failed persist is logged but keeps the in-memory session
// usable; durability degrades until the next successful write.
func (c *Claimer) adoptTokens(ctx context.Context, token *storefront.TokenResponse) {
	cred := domain.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		AccountID:    token.AccountID,
		ExpiresAt:    expiryOf(token),
	}

	// Refresh responses may omit the account id; keep the known one.
	if cred.AccountID == "" {
		cred.AccountID = c.cred.AccountID
	}

	c.cred = cred

	if err := c.store.Sessions().Put(ctx, cred); err != nil {
		slogx.FromContext(ctx).Error("failed to persist session", "error", err)
	}
}

// expiryOf derives the local expiry: expires_in when present, the token's
// own exp claim as a fallback, a fixed TTL as the last resort.
func expiryOf(token *storefront.TokenResponse) time.Time {
	if token.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtx.ExpiresAt(token.AccessToken); ok {
		return exp
	}
	return time.Now().Add(defaultTokenTTL)
}
