package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagelock/freeclaim/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func TestExpiresAtReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"sub": "account", "exp": exp.Unix()})

	got, ok := jwtx.ExpiresAt(token)
	require.True(t, ok)
	require.True(t, got.Equal(exp))
}

func TestExpiresAtIgnoresSignature(t *testing.T) {
	// The claim is readable even when the signature cannot be verified
	// locally, which is the whole point for third-party tokens.
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"exp": exp.Unix()})

	// Corrupt the signature segment only.
	tampered := token[:len(token)-2] + "xx"

	got, ok := jwtx.ExpiresAt(tampered)
	require.True(t, ok)
	require.True(t, got.Equal(exp))
}

func TestExpiresAtWithoutExpClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "account"})

	_, ok := jwtx.ExpiresAt(token)
	require.False(t, ok)
}

func TestExpiresAtOnOpaqueToken(t *testing.T) {
	_, ok := jwtx.ExpiresAt("e9c0a2f0opaque-token-value")
	require.False(t, ok)
}

func TestExpiresAtOnExpiredToken(t *testing.T) {
	// Validation is deliberately skipped; an already expired token still
	// yields its exp so the caller can decide to refresh.
	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"exp": exp.Unix()})

	got, ok := jwtx.ExpiresAt(token)
	require.True(t, ok)
	require.True(t, got.Equal(exp))
}
