package teamhub

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CacheEntry is one cached response. The transport stores entries on 200
// responses that carry an ETag and replays Data/Headers on 304.
type CacheEntry struct {
	// Data is the cached response body.
	Data []byte `json:"data"`
	// Headers are the response headers captured with the body.
	Headers http.Header `json:"headers,omitempty"`
	// ETag is the validator sent back as If-None-Match.
	ETag string `json:"etag"`
	// ExpiresAt bounds the entry lifetime. Zero means process lifetime.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *CacheEntry) expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Cache is the conditional-request cache consulted by the transport before
// sending GET requests. Keys are fully-qualified request URLs (query string
// included) combined with a credential hash; there is no partial-key matching.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-process Cache with a bounded entry count. When full,
// Set evicts the entry closest to expiry (or an arbitrary unexpiring one).
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
	ttl     time.Duration
}

// NewMemoryCache creates a MemoryCache holding at most maxSize entries.
// Entries live for the process lifetime unless they carry an ExpiresAt.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// NewMemoryCacheWithTTL creates a MemoryCache whose entries expire ttl after
// Set. Entries that already carry an ExpiresAt keep it.
func NewMemoryCacheWithTTL(maxSize int, ttl time.Duration) *MemoryCache {
	cache := NewMemoryCache(maxSize)
	cache.ttl = ttl

	return cache
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.expired() {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, entry *CacheEntry) error {
	if c.ttl > 0 && entry.ExpiresAt.IsZero() {
		// Stamp a copy so the caller's entry stays untouched.
		stamped := *entry
		stamped.ExpiresAt = time.Now().Add(c.ttl)
		entry = &stamped
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[key] = entry

	return nil
}

// evictLocked removes the entry with the earliest expiry, falling back to an
// arbitrary entry when none carry expirations.
func (c *MemoryCache) evictLocked() {
	var victim string

	var earliest time.Time

	for key, entry := range c.entries {
		if victim == "" || (!entry.ExpiresAt.IsZero() && (earliest.IsZero() || entry.ExpiresAt.Before(earliest))) {
			victim = key
			earliest = entry.ExpiresAt
		}
	}

	if victim != "" {
		delete(c.entries, victim)
	}
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has implements Cache.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// NoOpCache is a Cache that stores nothing: every Get misses and every Set
// succeeds silently. Used when caching is disabled.
type NoOpCache struct{}

// NewNoOpCache creates a NoOpCache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(context.Context, string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(context.Context, string, *CacheEntry) error { return nil }

// Delete does nothing.
func (c *NoOpCache) Delete(context.Context, string) error { return nil }

// Clear does nothing.
func (c *NoOpCache) Clear(context.Context) error { return nil }

// Has always reports false.
func (c *NoOpCache) Has(context.Context, string) bool { return false }
