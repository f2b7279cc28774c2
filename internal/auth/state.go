package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

// stateBytes is the entropy of the anti-forgery state parameter.
const stateBytes = 16

// StateStore holds the anti-forgery state values minted whenever an
// unauthenticated request is turned away. The browser carries the value
// through the authorization redirect and the OAuth callback consumes it,
// binding the callback to the request that initiated the login.
//
// Each value is single-use. Entries the callback never consumes
// (abandoned logins) are evicted by Sweep once they outlive the TTL, so
// the table cannot grow without bound.
type StateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]time.Time

	now func() time.Time // stubbed in tests
}

// NewStateStore returns an empty store whose entries expire after ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:    ttl,
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Issue mints a fresh random state value and records its issue time.
// Every call produces a new value; states are never reused.
func (s *StateStore) Issue() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	s.states[state] = s.now()
	s.mu.Unlock()

	return state, nil
}

// Consume removes the state if present and reports whether it was known.
// A false return means the value was never issued, already used, or
// swept — the callback treats all three as possible forgery.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state]; !ok {
		return false
	}
	delete(s.states, state)
	return true
}

// Sweep evicts every entry older than the TTL and returns the number of
// evicted entries. Scheduled periodically from the server binary.
func (s *StateStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for state, issuedAt := range s.states {
		if issuedAt.Before(cutoff) {
			delete(s.states, state)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of outstanding, unconsumed states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
