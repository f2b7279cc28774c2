package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/listkeep-io/listkeep/internal/auth"
	"github.com/listkeep-io/listkeep/internal/store"
)

// RouterConfig holds all dependencies needed to build the HTTP router.
// It is populated in main.go after all components are initialized and
// passed to NewRouter as a single struct.
type RouterConfig struct {
	Store     store.Store
	Verifier  auth.TokenVerifier
	States    *auth.StateStore
	Exchanger *auth.Exchanger
	Logger    *zap.Logger

	// ClientURL is the page the OAuth callback redirects to after login.
	ClientURL string

	// TokenCookieTTL bounds the "token" cookie set by the OAuth callback.
	TokenCookieTTL time.Duration

	// StateCookieTTL bounds the "state" cookie set alongside a 401.
	// It should match the state store's TTL so the cookie and the
	// server-side entry expire together.
	StateCookieTTL time.Duration

	// Secure controls whether cookies are set with the Secure flag.
	// Set to true in production (HTTPS), false in local development.
	Secure bool
}

// NewRouter builds and returns the fully configured Chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	todoHandler := NewTodoHandler(cfg.Store, cfg.Logger)
	oauthHandler := NewOAuthHandler(OAuthHandlerConfig{
		Exchanger: cfg.Exchanger,
		States:    cfg.States,
		ClientURL: cfg.ClientURL,
		CookieTTL: cfg.TokenCookieTTL,
		Secure:    cfg.Secure,
		Logger:    cfg.Logger,
	})
	gate := NewAuthGate(cfg.Verifier, cfg.States, cfg.StateCookieTTL, cfg.Secure, cfg.Logger)

	// Public routes — login completion and operational endpoints.
	r.Get("/oauth_callback", oauthHandler.Callback)
	r.Get("/healthz", healthz(cfg.Store))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The todo collection, all behind the auth gate.
	r.Group(func(r chi.Router) {
		r.Use(gate.Authenticate)

		r.Get("/todos", todoHandler.List)
		r.Post("/todos", todoHandler.Create)
		r.Get("/todos/{id}", todoHandler.GetByID)
		r.Put("/todos/{id}", todoHandler.Update)
		r.Delete("/todos/{id}", todoHandler.Delete)
	})

	return r
}

// healthz reports liveness of the store connection: 200 when the store
// answers a ping, 503 otherwise.
func healthz(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(r.Context()); err != nil {
			Err(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
