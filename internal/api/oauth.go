package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/listkeep-io/listkeep/internal/auth"
)

// OAuthHandler completes the authorization-code flow the browser client
// starts after a 401: the identity provider redirects back here with a
// code and the state value this server minted.
type OAuthHandler struct {
	exchanger *auth.Exchanger
	states    *auth.StateStore
	clientURL string
	cookieTTL time.Duration
	secure    bool
	logger    *zap.Logger
}

// OAuthHandlerConfig holds the dependencies for NewOAuthHandler.
type OAuthHandlerConfig struct {
	Exchanger *auth.Exchanger
	States    *auth.StateStore

	// ClientURL is where the browser is sent after a completed login —
	// the page that hosts the todo list.
	ClientURL string

	// CookieTTL bounds the lifetime of the "token" cookie.
	CookieTTL time.Duration

	Secure bool
	Logger *zap.Logger
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(cfg OAuthHandlerConfig) *OAuthHandler {
	return &OAuthHandler{
		exchanger: cfg.Exchanger,
		states:    cfg.States,
		clientURL: cfg.ClientURL,
		cookieTTL: cfg.CookieTTL,
		secure:    cfg.Secure,
		logger:    cfg.Logger.Named("oauth_handler"),
	}
}

// Callback handles GET /oauth_callback.
// The state must be one this server minted alongside a 401 and not yet
// used; anything else is treated as a possible forgery and rejected
// before any exchange is attempted. On success the access token lands in
// the httpOnly "token" cookie and the browser is sent back to the client
// page.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" || state == "" {
		ErrBadRequest(w, "missing code or state parameter")
		return
	}

	if !h.states.Consume(state) {
		h.logger.Warn("callback with unknown state", zap.String("remote_addr", r.RemoteAddr))
		ErrBadRequest(w, "unknown state")
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		var xerr *auth.ExchangeError
		if errors.As(err, &xerr) {
			// The provider refused the code — surface its status so the
			// client sees why (expired code, bad client config, ...).
			h.logger.Warn("token endpoint rejected exchange",
				zap.Int("status", xerr.Status),
				zap.String("body", xerr.Body),
			)
			Err(w, xerr.Status, "token exchange failed")
			return
		}
		h.logger.Error("code exchange failed", zap.Error(err))
		ErrInternal(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token.AccessToken,
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	http.Redirect(w, r, h.clientURL, http.StatusMovedPermanently)
}
