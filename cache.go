package tedee

import (
	"sync"
	"time"
)

// Cache defines an interface for caching API responses.
// Implementations must be safe for concurrent access.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found and not expired.
	Get(key string) (any, bool)

	// Set stores a value in the cache with the given TTL.
	// A TTL of zero or less means the entry never expires.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)
}

// cacheKeyLocks is the cache key under which the lock listing is stored.
const cacheKeyLocks = "locks"

// WithCache enables caching of lock listings with the given TTL.
// Lock commands invalidate the cached listing, since a completed
// operation changes lock state.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// locksFromCache returns the cached lock listing, if caching is enabled
// and the entry is still fresh.
func (c *Client) locksFromCache() ([]Lock, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(cacheKeyLocks)
	if !ok {
		return nil, false
	}
	locks, ok := v.([]Lock)
	return locks, ok
}

// storeLocksInCache stores a lock listing, if caching is enabled.
func (c *Client) storeLocksInCache(locks []Lock) {
	if c.cache == nil {
		return
	}
	c.cache.Set(cacheKeyLocks, locks, c.cacheTTL)
}

// InvalidateLocks drops the cached lock listing, if any.
func (c *Client) InvalidateLocks() {
	if c.cache == nil {
		return
	}
	c.cache.Delete(cacheKeyLocks)
}

// memoryCacheEntry holds a cached value with its expiration time.
type memoryCacheEntry struct {
	value     any
	expiresAt time.Time
	noExpiry  bool
}

// MemoryCache is a thread-safe in-memory cache implementation.
type MemoryCache struct {
	entries map[string]memoryCacheEntry
	mu      sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if !entry.noExpiry && time.Now().After(entry.expiresAt) {
		c.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value in the cache with the given TTL.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	entry := memoryCacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	} else {
		entry.noExpiry = true
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
