package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Tiered layers an in-memory LRU (L1) over an optional shared remote
// cache (L2), with a loader callback standing in as the slow source of
// truth (L3, typically the search provider).
//
// Default behavior for a single instance: L1 only.
type Tiered struct {
	l1 *LRU
	l2 RemoteCache
}

// Loader fetches a value when both cache tiers miss.
type Loader func(ctx context.Context, key string) ([]byte, error)

// TieredConfig holds tiered cache settings.
type TieredConfig struct {
	L1MaxItems int
	L1TTL      time.Duration
	L2TTL      time.Duration
	Remote     RemoteCache // nil disables L2
}

// DefaultTieredConfig returns settings suited to a single-process
// deployment: a 1000-item L1 with a 30 minute TTL and no remote tier.
func DefaultTieredConfig() *TieredConfig {
	return &TieredConfig{
		L1MaxItems: 1000,
		L1TTL:      30 * time.Minute,
		L2TTL:      30 * time.Minute,
	}
}

// NewTiered creates a tiered cache from the config. A nil config uses
// the defaults.
func NewTiered(config *TieredConfig) *Tiered {
	if config == nil {
		config = DefaultTieredConfig()
	}

	t := &Tiered{
		l1: NewLRU(config.L1MaxItems, config.L1TTL),
	}
	if config.Remote != nil {
		t.l2 = config.Remote
	}
	return t
}

// Get checks L1, then L2 (promoting hits into L1), then the loader.
// Loader results populate both tiers. A loader error is reported as a
// miss together with the error so the caller can decide how to degrade.
func (t *Tiered) Get(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	if value, ok := t.l1.Get(key); ok {
		return value, true, nil
	}

	if t.l2 != nil {
		if value, ok := t.l2.Get(ctx, key); ok {
			t.l1.Set(key, value, 0)
			return value, true, nil
		}
	}

	if load == nil {
		return nil, false, nil
	}

	value, err := load(ctx, key)
	if err != nil {
		return nil, false, err
	}

	t.Set(ctx, key, value, 0)
	return value, false, nil
}

// Set stores a value in every enabled tier. A non-positive ttl uses
// each tier's default.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	t.l1.Set(key, value, ttl)
	if t.l2 != nil {
		t.l2.Set(ctx, key, value, ttl)
	}
}

// Delete removes a key from every enabled tier.
func (t *Tiered) Delete(ctx context.Context, key string) {
	t.l1.Invalidate(key)
	if t.l2 != nil {
		t.l2.Delete(ctx, key)
	}
}

// Clear empties every enabled tier.
func (t *Tiered) Clear(ctx context.Context) {
	t.l1.Clear()
	if t.l2 != nil {
		t.l2.Clear(ctx)
	}
}

// Stats reports per-tier state for the health endpoint.
func (t *Tiered) Stats() map[string]any {
	stats := map[string]any{
		"l1_size":    t.l1.Size(),
		"l2_enabled": t.l2 != nil,
	}
	return stats
}

// Close shuts down the remote tier if one is attached.
func (t *Tiered) Close() error {
	if t.l2 != nil {
		if err := t.l2.Close(); err != nil {
			return errors.Wrap(err, "close remote cache")
		}
	}
	return nil
}

// SearchKey builds a stable cache key for a search request. The query
// is normalized so trivially different phrasings share an entry.
func SearchKey(kind, query, location string) string {
	components := []string{
		"search",
		kind,
		strings.ToLower(strings.TrimSpace(query)),
		strings.ToLower(strings.TrimSpace(location)),
	}
	joined := strings.Join(components, "|")
	h := sha256.Sum256([]byte(joined))
	return "search:" + kind + ":" + hex.EncodeToString(h[:])[:12]
}
