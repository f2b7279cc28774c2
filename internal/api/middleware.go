package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/listkeep-io/listkeep/internal/auth"
)

const (
	// tokenCookie holds the access token for browser sessions. Set
	// httpOnly by the OAuth callback so page scripts cannot read it.
	tokenCookie = "token"

	// stateCookie carries the anti-forgery state alongside a 401. It is
	// deliberately readable from script: the client page copies it into
	// the authorization redirect.
	stateCookie = "state"
)

// contextKey is an unexported type for context keys defined in this
// package. A custom type prevents collisions with keys from other packages.
type contextKey int

const (
	// contextKeyClaims is the context key under which the verified
	// *auth.Claims are stored after a successful token check.
	contextKeyClaims contextKey = iota
)

// AuthGate bundles the token verifier and the state store behind the
// Authenticate middleware. Every request either carries a token the
// identity provider signed, or leaves with a fresh state value and a 401.
type AuthGate struct {
	verifier auth.TokenVerifier
	states   *auth.StateStore
	stateTTL time.Duration
	secure   bool
	logger   *zap.Logger
}

// NewAuthGate creates an AuthGate. stateTTL bounds the lifetime of the
// state cookie; secure controls the cookie's Secure flag (true behind
// HTTPS, false in local development).
func NewAuthGate(verifier auth.TokenVerifier, states *auth.StateStore, stateTTL time.Duration, secure bool, logger *zap.Logger) *AuthGate {
	return &AuthGate{
		verifier: verifier,
		states:   states,
		stateTTL: stateTTL,
		secure:   secure,
		logger:   logger.Named("auth_gate"),
	}
}

// Authenticate validates the bearer token from the Authorization header,
// falling back to the "token" cookie when the header is absent. On
// success the verified claims are stored in the request context. On any
// failure a fresh anti-forgery state is minted and handed to the client
// in the "state" cookie before the 401 is written.
func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			g.deny(w)
			return
		}

		claims, err := g.verifier.Verify(r.Context(), raw)
		if err != nil {
			g.logger.Debug("token rejected", zap.Error(err))
			g.deny(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deny issues a new state, sets the state cookie, and writes the 401.
func (g *AuthGate) deny(w http.ResponseWriter) {
	state, err := g.states.Issue()
	if err != nil {
		g.logger.Error("failed to issue auth state", zap.Error(err))
		ErrInternal(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Expires:  time.Now().Add(g.stateTTL),
		HttpOnly: false,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	ErrUnauthorized(w)
}

// bearerToken extracts the access token from the request. The
// Authorization header wins; the "token" cookie is the fallback for
// browser sessions established through the OAuth callback. A malformed
// header is not forgiven by falling through to the cookie.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	if cookie, err := r.Cookie(tokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// claimsFromCtx retrieves the claims stored by Authenticate. Returns nil
// if the request is unauthenticated (i.e. on public routes).
func claimsFromCtx(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(contextKeyClaims).(*auth.Claims)
	return claims
}

// RequestLogger returns a Chi-compatible middleware that logs each
// request using the provided zap logger. Chi's middleware.RequestID is
// expected to run before this one so the request ID is available.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
