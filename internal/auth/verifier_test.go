package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://idp.example.com/realms/todos"

func genKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// signToken mints an RS256 token the way the identity provider would.
func signToken(t *testing.T, key *rsa.PrivateKey, issuer string, expiresAt time.Time) string {
	t.Helper()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:             "user@example.com",
		PreferredUsername: "user",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestStaticVerifierAcceptsValidToken(t *testing.T) {
	t.Parallel()

	key := genKey(t)
	v := NewStaticVerifier(&key.PublicKey, testIssuer, true)

	claims, err := v.Verify(context.Background(), signToken(t, key, testIssuer, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestStaticVerifierRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	key := genKey(t)

	for _, enforceExpiry := range []bool{true, false} {
		v := NewStaticVerifier(&key.PublicKey, testIssuer, enforceExpiry)
		token := signToken(t, key, "https://evil.example.com", time.Now().Add(time.Hour))

		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrIssuerMismatch, "enforceExpiry=%v", enforceExpiry)
	}
}

func TestStaticVerifierRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	key := genKey(t)
	otherKey := genKey(t)
	v := NewStaticVerifier(&key.PublicKey, testIssuer, true)

	token := signToken(t, otherKey, testIssuer, time.Now().Add(time.Hour))

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestStaticVerifierRejectsGarbage(t *testing.T) {
	t.Parallel()

	key := genKey(t)
	v := NewStaticVerifier(&key.PublicKey, testIssuer, true)

	_, err := v.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestStaticVerifierExpiryPolicy(t *testing.T) {
	t.Parallel()

	key := genKey(t)
	expired := signToken(t, key, testIssuer, time.Now().Add(-time.Minute))

	strict := NewStaticVerifier(&key.PublicKey, testIssuer, true)
	_, err := strict.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// With enforcement off, an expired token still passes as long as
	// the signature and issuer check out.
	lenient := NewStaticVerifier(&key.PublicKey, testIssuer, false)
	claims, err := lenient.Verify(context.Background(), expired)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}
