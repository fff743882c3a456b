// Package cache holds derived data fetched on behalf of the signed-in user
// (profile documents, query results). It exists so a sign-out can drop
// everything the previous identity produced in a single call.
package cache

import "sync"

// KeyUser is the key under which the current user's derived profile data
// lives. Sign-in and sign-up invalidate it so consumers refetch.
const KeyUser = "user"

// Cache is a small in-memory keyed store. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
