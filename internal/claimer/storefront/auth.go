package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sagelock/freeclaim/pkg/slogx"
)

// Login performs the primary credential exchange. A nil error with
// TwoFactorRequired set means the caller must complete the step-up flow
// before any tokens exist.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload := map[string]any{
		"email":      email,
		"password":   password,
		"rememberMe": true,
		"captcha":    nil,
	}

	resp, err := c.postJSON(ctx, c.identityURL+"/id/api/login", payload, "")
	if err != nil {
		return nil, err
	}

	var login LoginResponse
	if err := decodeJSON(resp, &login, http.StatusOK); err != nil {
		return nil, err
	}

	if login.TwoFactorRequired {
		slogx.FromContext(ctx).Info("storefront requires two-factor step-up", "method", login.Method)
	}
	return &login, nil
}

// SubmitTwoFactor submits the operator's step-up code. The identity service
// accepts the authenticator method name for email codes as well.
func (c *Client) SubmitTwoFactor(ctx context.Context, code string) error {
	payload := map[string]any{
		"code":           code,
		"method":         "authenticator",
		"rememberDevice": true,
	}

	resp, err := c.postJSON(ctx, c.identityURL+"/id/api/login/mfa", payload, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// AuthorizationCode follows the identity redirect and extracts the
// short-lived code from the redirect URL's query string.
func (c *Client) AuthorizationCode(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.identityURL+"/id/api/redirect", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(ctx, req, "")
	if err != nil {
		return "", err
	}

	var redirect redirectResponse
	if err := decodeJSON(resp, &redirect, http.StatusOK); err != nil {
		return "", err
	}

	u, err := url.Parse(redirect.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("malformed redirect url: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect url carries no authorization code")
	}
	return code, nil
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	return c.requestToken(ctx, map[string]any{
		"grant_type": "authorization_code",
		"code":       code,
		"client_id":  c.clientID,
	})
}

// Refresh trades a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.requestToken(ctx, map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
	})
}

func (c *Client) requestToken(ctx context.Context, payload map[string]any) (*TokenResponse, error) {
	resp, err := c.postJSON(ctx, c.identityURL+"/id/api/oauth/token", payload, "")
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := decodeJSON(resp, &token, http.StatusOK); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access token")
	}
	return &token, nil
}

func (c *Client) postJSON(ctx context.Context, fullURL string, payload any, bearer string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req, bearer)
}
