package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRU is an in-memory cache with TTL support and least-recently-used
// eviction. It is the L1 tier and safe for concurrent use.
type LRU struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.RWMutex

	entries map[string]*lruEntry
	order   *list.List
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	element   *list.Element
}

// NewLRU creates an LRU cache. Non-positive capacity and TTL fall back
// to 1000 items and 5 minutes.
func NewLRU(capacity int, defaultTTL time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &LRU{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*lruEntry),
		order:      list.New(),
	}
}

// Get retrieves a value. Expired entries are removed on access.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.remove(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value. A non-positive ttl uses the cache default.
func (c *LRU) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	e := &lruEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Invalidate removes entries matching the pattern. A trailing *
// matches by prefix (e.g. "search:flights:*"). Returns the number of
// entries removed.
func (c *LRU) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.Contains(pattern, "*") {
		if e, ok := c.entries[pattern]; ok {
			c.remove(e)
			return 1
		}
		return 0
	}

	prefix := strings.TrimSuffix(pattern, "*")
	count := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(e)
			count++
		}
	}
	return count
}

// Size returns the number of entries, including any not yet expired.
func (c *LRU) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*lruEntry)
	c.order.Init()
}

// CleanupExpired removes all expired entries and returns how many were
// dropped.
func (c *LRU) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stale []*lruEntry
	now := time.Now()
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stale = append(stale, e)
		}
	}
	for _, e := range stale {
		c.remove(e)
	}
	return len(stale)
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *LRU) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.remove(oldest.Value.(*lruEntry))
}

// remove drops an entry from both the map and the order list. Caller
// holds the lock.
func (c *LRU) remove(e *lruEntry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}
