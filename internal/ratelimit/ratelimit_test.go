package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLimited_FixedWindow(t *testing.T) {
	now := time.Date(2025, 4, 18, 10, 0, 0, 0, time.UTC)
	rl := New().WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		limited, info := rl.IsLimited("chat", "1.2.3.4", 3, time.Minute)
		assert.False(t, limited, "request %d within limit", i+1)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 3-(i+1), info.Remaining)
	}

	limited, info := rl.IsLimited("chat", "1.2.3.4", 3, time.Minute)
	assert.True(t, limited)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, now.Add(time.Minute), info.Reset)

	// A different identifier has its own window.
	limited, _ = rl.IsLimited("chat", "5.6.7.8", 3, time.Minute)
	assert.False(t, limited)

	// The window resets after it elapses.
	now = now.Add(61 * time.Second)
	limited, info = rl.IsLimited("chat", "1.2.3.4", 3, time.Minute)
	assert.False(t, limited)
	assert.Equal(t, 2, info.Remaining)
}

func TestIsLimited_ScopesAreIndependent(t *testing.T) {
	rl := New()

	limited, _ := rl.IsLimited("chat", "client", 1, time.Minute)
	assert.False(t, limited)
	limited, _ = rl.IsLimited("chat", "client", 1, time.Minute)
	assert.True(t, limited)

	limited, _ = rl.IsLimited("search", "client", 1, time.Minute)
	assert.False(t, limited)
}

func TestAllow_TokenBucket(t *testing.T) {
	rl := New()

	// The burst allows an initial run of requests.
	allowed := 0
	for i := 0; i < 25; i++ {
		if rl.Allow("search:serper") {
			allowed++
		}
	}
	assert.Equal(t, 20, allowed)
}
