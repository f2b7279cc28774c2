package auth

import "errors"

// Sentinel errors returned by the token verifiers.
// Callers should use errors.Is for comparison.
var (
	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not verify against the configured key material.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenExpired is returned when the token's exp claim has passed
	// and expiry enforcement is enabled.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrIssuerMismatch is returned when the token's iss claim does not
	// match the configured identity provider.
	ErrIssuerMismatch = errors.New("auth: token issuer mismatch")
)
