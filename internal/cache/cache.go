package cache

import (
	"sync"
	"time"
)

// Cache is a small in-memory cache with per-entry expiration. The sheets
// client uses it to hold spreadsheet metadata between calls so that
// name-to-id resolution and range synthesis do not refetch the sheet list.
type Cache[V any] struct {
	entries map[string]entry[V]
	ttl     time.Duration
	mu      sync.RWMutex
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
	}
}

// Get retrieves a value. Expired entries report a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || time.Since(e.storedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value, resetting its expiry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
}

// Invalidate drops a key. Callers use it after structural updates that
// change what the cached value would describe.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}
