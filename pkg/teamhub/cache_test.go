package teamhub

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10)
	ctx := context.Background()

	entry := &CacheEntry{
		Data:    []byte(`{"id":1}`),
		Headers: http.Header{"X-Request-Id": []string{"abc"}},
		ETag:    `"v1"`,
	}

	require.NoError(t, cache.Set(ctx, "key", entry))

	got, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, got.Data)
	assert.Equal(t, `"v1"`, got.ETag)
	assert.Equal(t, "abc", got.Headers.Get("X-Request-Id"))
}

func TestMemoryCache_Miss(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ErrCacheKeyNotFound)
	assert.False(t, cache.Has(context.Background(), "absent"))
}

func TestMemoryCache_Expiry(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stale", &CacheEntry{
		Data:      []byte("old"),
		ETag:      `"v1"`,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := cache.Get(ctx, "stale")
	require.ErrorIs(t, err, ErrCacheEntryExpired)

	// The expired entry is removed; a second read is a plain miss.
	_, err = cache.Get(ctx, "stale")
	require.ErrorIs(t, err, ErrCacheKeyNotFound)
}

func TestMemoryCache_TTL(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCacheWithTTL(10, time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", &CacheEntry{Data: []byte("x"), ETag: `"v1"`}))

	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "short")

		return err != nil
	}, time.Second, 5*time.Millisecond)

	// An explicit ExpiresAt wins over the cache-level TTL.
	far := time.Now().Add(time.Hour)
	entry := &CacheEntry{ETag: `"v2"`, ExpiresAt: far}
	require.NoError(t, cache.Set(ctx, "long", entry))
	assert.True(t, cache.Has(ctx, "long"))
	assert.Equal(t, far, entry.ExpiresAt)
}

func TestMemoryCache_ZeroExpiryNeverExpires(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "forever", &CacheEntry{Data: []byte("x"), ETag: `"v1"`}))
	assert.True(t, cache.Has(ctx, "forever"))
}

func TestMemoryCache_Eviction(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "soon", &CacheEntry{
		ETag:      `"a"`,
		ExpiresAt: time.Now().Add(time.Minute),
	}))
	require.NoError(t, cache.Set(ctx, "later", &CacheEntry{
		ETag:      `"b"`,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	// A third entry evicts the one closest to expiry.
	require.NoError(t, cache.Set(ctx, "new", &CacheEntry{ETag: `"c"`}))

	assert.False(t, cache.Has(ctx, "soon"))
	assert.True(t, cache.Has(ctx, "later"))
	assert.True(t, cache.Has(ctx, "new"))
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &CacheEntry{ETag: `"1"`}))
	require.NoError(t, cache.Set(ctx, "b", &CacheEntry{ETag: `"2"`}))
	require.NoError(t, cache.Set(ctx, "a", &CacheEntry{ETag: `"3"`}))

	got, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `"3"`, got.ETag)
	assert.True(t, cache.Has(ctx, "b"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &CacheEntry{ETag: `"1"`}))
	require.NoError(t, cache.Set(ctx, "b", &CacheEntry{ETag: `"2"`}))

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.False(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, "b"))
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache(100)
	ctx := context.Background()

	done := make(chan struct{})

	for i := range 10 {
		go func() {
			defer func() { done <- struct{}{} }()

			for j := range 50 {
				key := fmt.Sprintf("key-%d-%d", i, j)
				_ = cache.Set(ctx, key, &CacheEntry{ETag: `"x"`})
				_, _ = cache.Get(ctx, key)
			}
		}()
	}

	for range 10 {
		<-done
	}
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", &CacheEntry{ETag: `"v1"`}))

	_, err := cache.Get(ctx, "key")
	require.ErrorIs(t, err, ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "key"))
	require.NoError(t, cache.Delete(ctx, "key"))
	require.NoError(t, cache.Clear(ctx))
}
