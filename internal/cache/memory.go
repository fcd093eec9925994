package cache

import (
	"slices"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory caching with expiry and an optional entry cap.
// When the cap is reached the oldest inserted entry is evicted.
type MemoryCache struct {
	cache      *gocache.Cache
	maxEntries int

	mu    sync.Mutex
	order []string // insertion order, oldest first
}

// NewMemoryCache creates a new memory cache. maxEntries <= 0 means unbounded.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration, maxEntries int) *MemoryCache {
	c := &MemoryCache{
		cache:      gocache.New(defaultTTL, cleanupInterval),
		maxEntries: maxEntries,
	}
	c.cache.OnEvicted(func(key string, _ interface{}) {
		c.forget(key)
	})
	return c
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value in the cache with the given TTL
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
	c.order = append(c.order, key)

	var evict []string
	if c.maxEntries > 0 && len(c.order) > c.maxEntries {
		n := len(c.order) - c.maxEntries
		evict = slices.Clone(c.order[:n])
		c.order = slices.Delete(c.order, 0, n)
	}
	c.mu.Unlock()

	c.cache.Set(key, value, ttl)

	// Deleting triggers OnEvicted, which takes c.mu
	for _, k := range evict {
		c.cache.Delete(k)
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	c.mu.Lock()
	c.order = nil
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

func (c *MemoryCache) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
}
