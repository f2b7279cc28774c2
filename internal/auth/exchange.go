package auth

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ExchangeError reports a non-success response from the identity
// provider's token endpoint. The HTTP layer propagates Status to the
// caller instead of collapsing it into a generic 500.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("auth: token exchange failed with status %d", e.Status)
}

// ExchangerConfig holds the OAuth2 client configuration for the
// authorization-code exchange. AuthURL and TokenURL may be filled in
// from DiscoverEndpoints when only the issuer is configured.
type ExchangerConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string

	// RedirectURL must match the redirect_uri the browser client sent
	// in the original authorization request, or the provider rejects
	// the exchange.
	RedirectURL string

	Scopes []string
}

// Exchanger completes the authorization-code exchange against the
// identity provider's token endpoint.
type Exchanger struct {
	cfg oauth2.Config
}

// NewExchanger builds an Exchanger. Scopes default to "openid".
func NewExchanger(cfg ExchangerConfig) *Exchanger {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID}
	}

	return &Exchanger{cfg: oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
		Scopes: scopes,
	}}
}

// Exchange swaps the authorization code for an access token. A non-2xx
// response from the token endpoint is surfaced as *ExchangeError
// carrying the upstream status; any other failure (network, parsing)
// comes back as a wrapped error.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := e.cfg.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &ExchangeError{
				Status: rerr.Response.StatusCode,
				Body:   string(rerr.Body),
			}
		}
		return nil, fmt.Errorf("auth: exchanging code: %w", err)
	}
	return token, nil
}

// DiscoverEndpoints resolves the authorization and token endpoints from
// the issuer's OIDC discovery document, for deployments that configure
// only the issuer URL.
func DiscoverEndpoints(ctx context.Context, issuer string) (oauth2.Endpoint, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("auth: discovering issuer %q: %w", issuer, err)
	}
	return provider.Endpoint(), nil
}
