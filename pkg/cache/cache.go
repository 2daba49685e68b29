// Package cache provides thread-safe caching with TTL support.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value      any
	expiration time.Time
}

// Cache provides thread-safe caching with TTL. Expired entries are dropped
// lazily on read; a triage run is short-lived, so there is no background
// sweeper.
type Cache struct {
	entries map[string]entry
	mu      sync.RWMutex
	ttl     time.Duration
}

// New creates a new cache with the specified default TTL.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get retrieves a value from cache if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if time.Now().After(e.expiration) {
		c.mu.Lock()
		// Re-check after lock upgrade: Set may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiration) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value in cache with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
}
