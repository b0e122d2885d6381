// Package jwtx contains small helpers for inspecting bearer tokens issued
// by the storefront identity service. The tokens are opaque to us as a
// client, but when they happen to be JWTs we can read the registered exp
// claim to derive a local expiry without a round trip.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiresAt returns the exp claim of the given token without verifying its
// signature. The boolean is false when the token is not a parsable JWT or
// carries no exp claim. The result must only be used as a scheduling hint,
// never as proof of validity.
func ExpiresAt(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
