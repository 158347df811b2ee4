package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenDeny(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(1, 3)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("client"), "request %d should pass", i)
	}
	assert.False(t, rl.allow("client"))
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(2, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("client"))
	assert.True(t, rl.allow("client"))
	assert.False(t, rl.allow("client"))

	// one second refills two tokens, capped at burst
	now = now.Add(time.Second)
	assert.True(t, rl.allow("client"))
	assert.True(t, rl.allow("client"))
	assert.False(t, rl.allow("client"))
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))
}
