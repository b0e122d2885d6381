package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/store/drivers/sqlite"
	"github.com/sagelock/freeclaim/internal/claimer/storefront"
	"github.com/sagelock/freeclaim/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// fakeStorefront is an httptest stand-in for the identity service, the
// catalog feed and the transactional GraphQL endpoint.
type fakeStorefront struct {
	mu sync.Mutex

	loginFail      bool
	loginTwoFactor bool
	loginMethod    string

	acceptCode    string
	acceptAnyCode bool

	refreshFail    bool
	tokenExpiresIn int

	catalog    []map[string]any
	failOffers map[string]string // offer id -> orderError

	loginCalls    int
	mfaCalls      int
	redirectCalls int
	exchangeCalls int
	refreshCalls  int
	catalogCalls  int
	orderCalls    int

	server *httptest.Server
}

func newFakeStorefront(t *testing.T) *fakeStorefront {
	t.Helper()

	f := &fakeStorefront{
		loginMethod:    "authenticator",
		acceptCode:     "123456",
		tokenExpiresIn: 7200,
		failOffers:     map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /id/api/login", f.handleLogin)
	mux.HandleFunc("POST /id/api/login/mfa", f.handleMFA)
	mux.HandleFunc("GET /id/api/redirect", f.handleRedirect)
	mux.HandleFunc("POST /id/api/oauth/token", f.handleToken)
	mux.HandleFunc("GET /api/content/assets/v2/freegames", f.handleCatalog)
	mux.HandleFunc("POST /graphql", f.handleOrder)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeStorefront) client(t *testing.T) *storefront.Client {
	t.Helper()

	c, err := storefront.NewClient(storefront.Config{
		IdentityURL: f.server.URL,
		CatalogURL:  f.server.URL,
		GraphQLURL:  f.server.URL + "/graphql",
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func (f *fakeStorefront) handleLogin(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++

	if f.loginFail {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errorCode": "invalid_credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"twoFactorRequired": f.loginTwoFactor,
		"method":            f.loginMethod,
	})
}

func (f *fakeStorefront) handleMFA(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mfaCalls++

	var payload struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if f.acceptAnyCode || payload.Code == f.acceptCode {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"errorCode": "invalid_code"})
}

func (f *fakeStorefront) handleRedirect(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirectCalls++

	writeJSON(w, http.StatusOK, map[string]any{
		"redirectUrl": "https://store.example.com/landing?code=auth-code-1",
	})
}

func (f *fakeStorefront) handleToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payload struct {
		GrantType string `json:"grant_type"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	if payload.GrantType == "refresh_token" {
		f.refreshCalls++
		if f.refreshFail {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"errorCode": "invalid_grant"})
			return
		}
	} else {
		f.exchangeCalls++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  "access-token",
		"refresh_token": "refresh-token",
		"account_id":    "acct-1",
		"expires_in":    f.tokenExpiresIn,
	})
}

func (f *fakeStorefront) handleCatalog(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogCalls++

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"Catalog": map[string]any{
				"searchStore": map[string]any{"elements": f.catalog},
			},
		},
	})
}

func (f *fakeStorefront) handleOrder(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++

	var payload struct {
		Variables struct {
			OrderPurchaseParams struct {
				OfferID string `json:"offerId"`
			} `json:"orderPurchaseParams"`
		} `json:"variables"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	order := map[string]any{
		"orderResponseCode": "COMPLETED",
		"orderNumber":       "ORD-1",
		"orderComplete":     true,
		"orderError":        "",
	}
	if reason, ok := f.failOffers[payload.Variables.OrderPurchaseParams.OfferID]; ok {
		order = map[string]any{
			"orderResponseCode": "REJECTED",
			"orderComplete":     false,
			"orderError":        reason,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"purchaseOrder": map[string]any{"orderResponse": order},
		},
	})
}

func (f *fakeStorefront) counts() (login, mfa, exchange, refresh, catalog, order int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.mfaCalls, f.exchangeCalls, f.refreshCalls, f.catalogCalls, f.orderCalls
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func catalogElement(id, title, namespace, slug string, discountPrice int) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       title,
		"namespace":   namespace,
		"urlSlug":     slug,
		"description": "a description of " + title,
		"price": map[string]any{
			"totalPrice": map[string]any{"discountPrice": discountPrice},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClaimer(t *testing.T, f *fakeStorefront, cfg ClaimerConfig) (*Claimer, *sqlite.Store) {
	t.Helper()

	t.Setenv("FREECLAIM_MASTER_KEY", "service-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	if cfg.Email == "" {
		cfg.Email = "user@example.com"
	}
	if cfg.Password == "" {
		cfg.Password = "correct-horse"
	}

	c := NewClaimer(context.Background(), st, f.client(t), discardLogger(), cfg)
	return c, st
}
