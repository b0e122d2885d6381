package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/stretchr/testify/require"
)

func TestClaim(t *testing.T) {
	ctx := context.Background()

	offer := domain.Offer{
		ID:        "offer-a",
		Title:     "Game A",
		Namespace: "ns-a",
	}

	t.Run("confirmed order commits the ledger before returning", func(t *testing.T) {
		f := newFakeStorefront(t)
		c, st := newTestClaimer(t, f, ClaimerConfig{})
		require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

		require.NoError(t, c.Claim(ctx, offer))

		claimed, err := st.ClaimedOffers().Contains(ctx, "offer-a")
		require.NoError(t, err)
		require.True(t, claimed)
	})

	t.Run("rejected order leaves the ledger untouched", func(t *testing.T) {
		f := newFakeStorefront(t)
		f.failOffers["offer-a"] = "CAPTCHA_INVALID"
		c, st := newTestClaimer(t, f, ClaimerConfig{})
		require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

		err := c.Claim(ctx, offer)

		var rejected *ClaimRejectedError
		require.ErrorAs(t, err, &rejected)
		require.Equal(t, "offer-a", rejected.OfferID)
		require.Equal(t, "CAPTCHA_INVALID", rejected.Reason)

		claimed, cerr := st.ClaimedOffers().Contains(ctx, "offer-a")
		require.NoError(t, cerr)
		require.False(t, claimed)
	})

	t.Run("second direct claim runs a real transaction, ledger keeps one row", func(t *testing.T) {
		f := newFakeStorefront(t)
		c, st := newTestClaimer(t, f, ClaimerConfig{})
		require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

		require.NoError(t, c.Claim(ctx, offer))
		// No client-side short-circuit: a repeat call goes back to the
		// storefront and lets it decide.
		require.NoError(t, c.Claim(ctx, offer))

		_, _, _, _, _, order := f.counts()
		require.Equal(t, 2, order)

		count, err := st.ClaimedOffers().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("malformed offer is rejected before any network call", func(t *testing.T) {
		f := newFakeStorefront(t)
		c, _ := newTestClaimer(t, f, ClaimerConfig{})
		require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

		err := c.Claim(ctx, domain.Offer{Title: "No ID"})
		require.True(t, errors.Is(err, domain.ErrInvalidOffer))

		_, _, _, _, _, order := f.counts()
		require.Zero(t, order)
	})

	t.Run("requires an authenticated session", func(t *testing.T) {
		f := newFakeStorefront(t)
		c, _ := newTestClaimer(t, f, ClaimerConfig{})

		require.ErrorIs(t, c.Claim(ctx, offer), ErrNotAuthenticated)

		_, _, _, _, _, order := f.counts()
		require.Zero(t, order)
	})

	t.Run("claimed offer disappears from discovery", func(t *testing.T) {
		f := newFakeStorefront(t)
		f.catalog = []map[string]any{
			catalogElement("offer-a", "Game A", "ns-a", "game-a", 0),
		}
		c, _ := newTestClaimer(t, f, ClaimerConfig{})
		require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

		offers, err := c.FreeOffers(ctx)
		require.NoError(t, err)
		require.Len(t, offers, 1)

		require.NoError(t, c.Claim(ctx, offers[0]))

		offers, err = c.FreeOffers(ctx)
		require.NoError(t, err)
		require.Empty(t, offers)
	})
}

func TestClaimedCount(t *testing.T) {
	ctx := context.Background()

	f := newFakeStorefront(t)
	c, _ := newTestClaimer(t, f, ClaimerConfig{})
	require.Equal(t, domain.LoginSuccess, c.Login(ctx, "user@example.com", "correct-horse").Status)

	count, err := c.ClaimedCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, c.Claim(ctx, domain.Offer{ID: "offer-a", Title: "Game A", Namespace: "ns-a"}))

	count, err = c.ClaimedCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
