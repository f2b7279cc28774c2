package api

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenEndpoint stands in for the identity provider's token
// endpoint. It counts exchange attempts and answers with the configured
// status.
type fakeTokenEndpoint struct {
	server *httptest.Server
	hits   atomic.Int64
	status int
}

func newFakeTokenEndpoint(t *testing.T, status int) *fakeTokenEndpoint {
	t.Helper()

	f := &fakeTokenEndpoint{status: status}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)

		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "provider-access-token", "token_type": "Bearer", "expires_in": 300}`))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func TestCallbackRejectsMissingParams(t *testing.T) {
	t.Parallel()

	idp := newFakeTokenEndpoint(t, http.StatusOK)
	env := newTestEnv(t, idp.server.URL)

	assert.Equal(t, http.StatusBadRequest,
		env.do(http.MethodGet, "/oauth_callback", "", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		env.do(http.MethodGet, "/oauth_callback?code=abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		env.do(http.MethodGet, "/oauth_callback?state=abc", "", "").Code)

	assert.EqualValues(t, 0, idp.hits.Load(), "no exchange may happen without both params")
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	t.Parallel()

	idp := newFakeTokenEndpoint(t, http.StatusOK)
	env := newTestEnv(t, idp.server.URL)

	rec := env.do(http.MethodGet, "/oauth_callback?code=abc&state=never-issued", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 0, idp.hits.Load(), "an unknown state must abort before the exchange")
}

func TestCallbackCompletesLogin(t *testing.T) {
	t.Parallel()

	idp := newFakeTokenEndpoint(t, http.StatusOK)
	env := newTestEnv(t, idp.server.URL)

	state, err := env.states.Issue()
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/oauth_callback?code=abc&state="+state, "", "")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/todo.html", rec.Header().Get("Location"))
	assert.EqualValues(t, 1, idp.hits.Load())

	cookie := cookieByName(rec, "token")
	require.NotNil(t, cookie)
	assert.Equal(t, "provider-access-token", cookie.Value)
	assert.True(t, cookie.HttpOnly, "the token cookie must not be readable from script")

	// The state is single-use: replaying the callback fails.
	rec = env.do(http.MethodGet, "/oauth_callback?code=abc&state="+state, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.EqualValues(t, 1, idp.hits.Load())
}

func TestCallbackPropagatesUpstreamStatus(t *testing.T) {
	t.Parallel()

	idp := newFakeTokenEndpoint(t, http.StatusForbidden)
	env := newTestEnv(t, idp.server.URL)

	state, err := env.states.Issue()
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/oauth_callback?code=bad&state="+state, "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, cookieByName(rec, "token"), "no cookie may be set on a failed exchange")
}
