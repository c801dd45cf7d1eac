package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marsmission/rover-status-service/internal/models"
)

// Cache stores assembled rover responses keyed by sol. Get returns cached
// data if present and not expired, Set stores data with a TTL. Values are
// reproducible, so racing writers for the same key are harmless.
type Cache interface {
	Get(ctx context.Context, key string) (models.RoverData, bool, error)
	Set(ctx context.Context, key string, value models.RoverData, ttl time.Duration) error
}

// InMemoryCache implements Cache with a mutex-guarded map and TTL-based
// expiration. Expired entries are removed on access.
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
}

// cacheEntry stores a cached response with its expiration timestamp.
type cacheEntry struct {
	value     models.RoverData
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves the cached response for the key if present and not expired.
// Returns (data, true, nil) on cache hit, (zero, false, nil) on miss or
// expiration.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.RoverData, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.RoverData{}, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return models.RoverData{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores a response in cache with the specified TTL duration.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.RoverData, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
