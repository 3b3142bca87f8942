// Package store provides session persistence behind a key-value
// contract with TTL. The conversation core serializes SessionState into
// this store and tolerates stale payloads on the way back out; expiry is
// the store's job, not the core's.
package store

import (
	"context"
	"time"
)

// KV is the key-value store contract the workflow driver commits to.
type KV interface {
	// Get returns the value for key, or nil with no error when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
