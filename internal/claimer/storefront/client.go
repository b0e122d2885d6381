// Package storefront is the HTTP client for the storefront and its identity
// service. It models exactly the endpoints the claimer needs: the login and
// token exchange flow, the free-games catalog feed, and the purchase-order
// mutation used to claim a zero-cost offer.
package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultClientID identifies the web store application against the identity
// service. Injected configuration, overridable per environment.
const DefaultClientID = "875a3b57d3a640a6b7f9b4e883463ab4"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Config carries the endpoints and credentials for a Client. Zero values
// fall back to the production storefront.
type Config struct {
	IdentityURL string // base URL of the identity service
	CatalogURL  string // base URL of the store content service
	GraphQLURL  string // full URL of the transactional GraphQL endpoint

	ClientID  string
	UserAgent string

	Locale  string // e.g. "en-US"
	Country string // e.g. "US"

	// Timeout bounds every request so a hung call cannot stall a claim
	// cycle forever.
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outbound calls to the
	// storefront. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the storefront. It carries no tokens of its own; callers
// pass the bearer token per request. The login flow does depend on cookies
// set by the identity service, which the embedded jar tracks.
type Client struct {
	identityURL string
	catalogURL  string
	graphqlURL  string

	clientID  string
	userAgent string
	locale    string
	country   string

	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = "https://www.epicgames.com"
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = "https://store-content.ak.epicgames.com"
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = "https://graphql.epicgames.com/graphql"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	// The identity service threads login state through cookies between
	// the login, mfa and redirect calls.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		identityURL: strings.TrimSuffix(cfg.IdentityURL, "/"),
		catalogURL:  strings.TrimSuffix(cfg.CatalogURL, "/"),
		graphqlURL:  cfg.GraphQLURL,
		clientID:    cfg.ClientID,
		userAgent:   cfg.UserAgent,
		locale:      cfg.Locale,
		country:     cfg.Country,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter: limiter,
	}, nil
}

// Locale returns the configured catalog locale.
func (c *Client) Locale() string { return c.locale }

// do executes a request with the shared headers and the politeness limiter
// applied. bearer may be empty for unauthenticated identity calls.
func (c *Client) do(ctx context.Context, req *http.Request, bearer string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", c.identityURL+"/store/")
	req.Header.Set("Origin", c.identityURL)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}
