package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sagelock/freeclaim/internal/claimer/domain"
	"github.com/sagelock/freeclaim/internal/claimer/store"
	"github.com/sagelock/freeclaim/pkg/cryptox"
	"github.com/sagelock/freeclaim/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	t.Setenv("FREECLAIM_MASTER_KEY", "store-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	t.Run("empty store returns not found", func(t *testing.T) {
		_, err := st.Sessions().Get(ctx)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	cred := domain.Credential{
		AccessToken:  "access-token-value",
		RefreshToken: "refresh-token-value",
		AccountID:    "acct-123",
		ExpiresAt:    time.Now().Add(8 * time.Hour).UTC().Truncate(time.Second),
	}

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, st.Sessions().Put(ctx, cred))

		got, err := st.Sessions().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, cred.AccessToken, got.AccessToken)
		require.Equal(t, cred.RefreshToken, got.RefreshToken)
		require.Equal(t, cred.AccountID, got.AccountID)
		require.True(t, got.ExpiresAt.Equal(cred.ExpiresAt))
	})

	t.Run("put overwrites the single row", func(t *testing.T) {
		next := cred
		next.AccessToken = "rotated-access"
		next.RefreshToken = "rotated-refresh"
		require.NoError(t, st.Sessions().Put(ctx, next))

		got, err := st.Sessions().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "rotated-access", got.AccessToken)
		require.Equal(t, "rotated-refresh", got.RefreshToken)
	})

	t.Run("delete empties the store", func(t *testing.T) {
		require.NoError(t, st.Sessions().Delete(ctx))

		_, err := st.Sessions().Get(ctx)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSessionsTokensSealedAtRest(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	cred := domain.Credential{
		AccessToken:  "plaintext-access",
		RefreshToken: "plaintext-refresh",
		AccountID:    "acct-123",
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, st.Sessions().Put(ctx, cred))

	var storedAccess, storedRefresh string
	row := st.db.QueryRowContext(ctx, `SELECT access_token, refresh_token FROM sessions WHERE id = 1`)
	require.NoError(t, row.Scan(&storedAccess, &storedRefresh))

	require.NotEqual(t, "plaintext-access", storedAccess)
	require.NotEqual(t, "plaintext-refresh", storedRefresh)
}

func TestClaimedOffersLedger(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := domain.ClaimedOffer{
		ID:        idx.New(),
		OfferID:   "offer-1",
		Title:     "First Game",
		Namespace: "ns-1",
		ClaimedAt: time.Now().Add(-time.Hour).UTC().Truncate(time.Second),
	}
	second := domain.ClaimedOffer{
		ID:        idx.New(),
		OfferID:   "offer-2",
		Title:     "Second Game",
		Namespace: "ns-2",
		ClaimedAt: time.Now().UTC().Truncate(time.Second),
	}

	t.Run("add and contains", func(t *testing.T) {
		require.NoError(t, st.ClaimedOffers().Add(ctx, first))
		require.NoError(t, st.ClaimedOffers().Add(ctx, second))

		ok, err := st.ClaimedOffers().Contains(ctx, "offer-1")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = st.ClaimedOffers().Contains(ctx, "offer-unknown")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("re-adding the same offer id is a no-op", func(t *testing.T) {
		dup := first
		dup.ID = idx.New()
		dup.Title = "Renamed Game"
		require.NoError(t, st.ClaimedOffers().Add(ctx, dup))

		count, err := st.ClaimedOffers().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		// The original row wins.
		list, err := st.ClaimedOffers().List(ctx)
		require.NoError(t, err)
		require.Equal(t, "First Game", list[0].Title)
	})

	t.Run("list is in claim order", func(t *testing.T) {
		list, err := st.ClaimedOffers().List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "offer-1", list[0].OfferID)
		require.Equal(t, "offer-2", list[1].OfferID)
	})
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
