package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("LISTKEEP_TEST_STRING", "from-env")

	assert.Equal(t, "from-env", envOrDefault("LISTKEEP_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", envOrDefault("LISTKEEP_TEST_UNSET", "fallback"))
}

func TestEnvOrDefaultBool(t *testing.T) {
	t.Setenv("LISTKEEP_TEST_BOOL", "false")
	t.Setenv("LISTKEEP_TEST_BOOL_BAD", "not-a-bool")

	assert.False(t, envOrDefaultBool("LISTKEEP_TEST_BOOL", true))
	assert.True(t, envOrDefaultBool("LISTKEEP_TEST_UNSET", true))
	// Unparseable values fall back to the default.
	assert.True(t, envOrDefaultBool("LISTKEEP_TEST_BOOL_BAD", true))
}

func TestEnvOrDefaultDuration(t *testing.T) {
	t.Setenv("LISTKEEP_TEST_DURATION", "90s")
	t.Setenv("LISTKEEP_TEST_DURATION_BAD", "ninety seconds")

	assert.Equal(t, 90*time.Second, envOrDefaultDuration("LISTKEEP_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, envOrDefaultDuration("LISTKEEP_TEST_UNSET", time.Minute))
	assert.Equal(t, time.Minute, envOrDefaultDuration("LISTKEEP_TEST_DURATION_BAD", time.Minute))
}
