// Package auth implements the authentication pieces of the todo backend:
// bearer-token verification against the external identity provider, the
// authorization-code exchange, and the single-use anti-forgery state
// table that binds the two together.
//
// Tokens are issued by the identity provider, never by this server — the
// verifiers only check what the provider signed.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the token claims the HTTP layer cares about. Standard
// claims (iss, sub, exp) come in via jwt.RegisteredClaims; the identity
// fields below are the usual OIDC profile claims.
type Claims struct {
	jwt.RegisteredClaims

	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

// TokenVerifier validates a raw access token and returns its claims.
// The auth gate middleware programs against this interface so the two
// implementations (static key, OIDC discovery) are interchangeable.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// StaticVerifier verifies RS256 tokens against a fixed RSA public key
// and a configured issuer. This is the primary deployment mode: the
// provider's realm key is exported once and mounted as a PEM file.
//
// enforceExpiry controls whether the exp claim is honored. The source
// deployment ran with expiry ignored; that behavior is preserved behind
// the flag but is no longer the default.
type StaticVerifier struct {
	publicKey     *rsa.PublicKey
	issuer        string
	enforceExpiry bool
}

// NewStaticVerifier builds a verifier from an already parsed public key.
func NewStaticVerifier(publicKey *rsa.PublicKey, issuer string, enforceExpiry bool) *StaticVerifier {
	return &StaticVerifier{
		publicKey:     publicKey,
		issuer:        issuer,
		enforceExpiry: enforceExpiry,
	}
}

// NewStaticVerifierFromFile loads a PEM-encoded PKIX public key from
// disk. Use this in production where the provider key is mounted as a
// secret.
func NewStaticVerifierFromFile(path, issuer string, enforceExpiry bool) (*StaticVerifier, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: reading public key file: %w", err)
	}

	key, err := parsePublicKeyPEM(pemBytes)
	if err != nil {
		return nil, err
	}

	return NewStaticVerifier(key, issuer, enforceExpiry), nil
}

// parsePublicKeyPEM parses a PEM-encoded PKIX RSA public key.
func parsePublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("auth: failed to decode public key PEM block")
	}

	pubInterface, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing public key: %w", err)
	}

	publicKey, ok := pubInterface.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("auth: public key is not an RSA key")
	}

	return publicKey, nil
}

// Verify implements TokenVerifier.
func (v *StaticVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	keyfunc := func(t *jwt.Token) (any, error) {
		// Reject tokens signed with anything other than RSA methods.
		// This prevents the "alg:none" and HMAC confusion attacks.
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return v.publicKey, nil
	}

	if v.enforceExpiry {
		token, err := jwt.ParseWithClaims(raw, &Claims{}, keyfunc, jwt.WithIssuer(v.issuer))
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return nil, ErrTokenExpired
			case errors.Is(err, jwt.ErrTokenInvalidIssuer):
				return nil, ErrIssuerMismatch
			default:
				return nil, ErrTokenInvalid
			}
		}
		return tokenClaims(token)
	}

	// Lenient mode: the signature still has to verify, but claim
	// validation is skipped entirely so an expired token passes.
	// The issuer is then checked by hand — it is a hard requirement
	// regardless of the expiry policy.
	token, err := jwt.ParseWithClaims(raw, &Claims{}, keyfunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, err := tokenClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.Issuer != v.issuer {
		return nil, ErrIssuerMismatch
	}
	return claims, nil
}

// tokenClaims extracts the Claims from a parsed token.
func tokenClaims(token *jwt.Token) (*Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// OIDCVerifier validates tokens against the provider's published JWKS,
// located through OIDC discovery on the issuer. Used when no static
// public key file is configured; key rotation at the provider is picked
// up automatically.
type OIDCVerifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's JWKS endpoint and returns a
// verifier bound to it. The audience check is skipped — access tokens
// carry a provider-specific audience that varies with the realm's
// client mappers.
func NewOIDCVerifier(ctx context.Context, issuer string, enforceExpiry bool) (*OIDCVerifier, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("auth: discovering issuer %q: %w", issuer, err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&gooidc.Config{
			SkipClientIDCheck: true,
			SkipExpiryCheck:   !enforceExpiry,
		}),
	}, nil
}

// Verify implements TokenVerifier.
func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		var expErr *gooidc.TokenExpiredError
		if errors.As(err, &expErr) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
