package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in process memory. When full, expired entries
// are dropped first, then the oldest write.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memEntry
	maxEntries int
	now        func() time.Time
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
	written   time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries values
// (unbounded when maxEntries <= 0).
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]memEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e := memEntry{data: append([]byte(nil), data...), written: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldest string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldest == "" || e.written.Before(oldestAt) {
			oldest, oldestAt = k, e.written
		}
	}
	delete(c.entries, oldest)
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
