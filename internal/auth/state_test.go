package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStoreIssueNeverRepeats(t *testing.T) {
	t.Parallel()

	s := NewStateStore(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := s.Issue()
		require.NoError(t, err)
		require.NotEmpty(t, state)
		assert.False(t, seen[state], "state %q issued twice", state)
		seen[state] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestStateStoreConsumeIsSingleUse(t *testing.T) {
	t.Parallel()

	s := NewStateStore(time.Minute)

	state, err := s.Issue()
	require.NoError(t, err)

	assert.True(t, s.Consume(state))
	assert.False(t, s.Consume(state), "a state must not be consumable twice")
	assert.False(t, s.Consume("never-issued"))
}

func TestStateStoreSweepEvictsExpired(t *testing.T) {
	t.Parallel()

	s := NewStateStore(10 * time.Minute)

	now := time.Now()
	s.now = func() time.Time { return now }

	stale, err := s.Issue()
	require.NoError(t, err)

	// Advance past the TTL and issue a fresh state.
	s.now = func() time.Time { return now.Add(11 * time.Minute) }
	fresh, err := s.Issue()
	require.NoError(t, err)

	assert.Equal(t, 1, s.Sweep())
	assert.False(t, s.Consume(stale), "swept state must not be consumable")
	assert.True(t, s.Consume(fresh))
	assert.Equal(t, 0, s.Len())
}
