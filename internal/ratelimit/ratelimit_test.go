package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowsWithinBurst(t *testing.T) {
	l := New(1, 3)
	assert.True(t, l.Allow("agent-1", "add_message"))
	assert.True(t, l.Allow("agent-1", "add_message"))
	assert.True(t, l.Allow("agent-1", "add_message"))
	assert.False(t, l.Allow("agent-1", "add_message"))
}

func TestLimiter_BucketsAreIndependentPerAgentAndTool(t *testing.T) {
	l := New(1, 1)
	assert.True(t, l.Allow("agent-1", "add_message"))
	assert.True(t, l.Allow("agent-2", "add_message"))
	assert.True(t, l.Allow("agent-1", "get_messages"))
	assert.False(t, l.Allow("agent-1", "add_message"))
}

func TestCheck_ReturnsRateLimitedError(t *testing.T) {
	l := New(1, 1)
	assert.Nil(t, l.Check("agent-1", "add_message"))
	err := l.Check("agent-1", "add_message")
	assert.NotNil(t, err)
	assert.Equal(t, "RATE_LIMITED", err.Code)
}
