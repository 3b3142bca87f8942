// Package ratelimit provides the keyed rate limiter shared by the HTTP
// layer and the search path.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides two limiting modes over one keyed table: a
// token-bucket Allow/Wait pair for internal callers, and a fixed-window
// IsLimited for the HTTP layer, which needs limit/remaining/reset
// numbers to put in response headers.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	windows map[string]*window

	now func() time.Time
}

type window struct {
	start time.Time
	count int
}

// Info describes the state of a fixed window after a check.
type Info struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// New creates an empty rate limiter.
func New() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock overrides the limiter clock, used by tests.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// getBucket gets or creates the token bucket for a key.
func (rl *RateLimiter) getBucket(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.buckets[key]; ok {
		return limiter
	}

	// 10 requests per second with a burst of 20.
	limiter := rate.NewLimiter(rate.Every(time.Second/10), 20)
	rl.buckets[key] = limiter
	return limiter
}

// Allow reports whether a request is allowed for the key right now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getBucket(key).Allow()
}

// Wait blocks until a request for the key is allowed or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getBucket(key).Wait(ctx)
}

// IsLimited counts a request against the fixed window identified by
// scope and identifier. It returns true when the request exceeds the
// limit, along with the window state for response headers.
func (rl *RateLimiter) IsLimited(scope, identifier string, limit int, windowSize time.Duration) (bool, Info) {
	key := scope + ":" + identifier
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= windowSize {
		w = &window{start: now}
		rl.windows[key] = w
	}

	w.count++
	info := Info{
		Limit:     limit,
		Remaining: limit - w.count,
		Reset:     w.start.Add(windowSize),
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return w.count > limit, info
}
