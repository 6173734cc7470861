package cache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock shared by the backend tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_StoreAndFetch(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	ok, err := cache.Store(ctx, "test-key", "test-value", 3600)
	require.NoError(t, err)
	assert.True(t, ok)

	value, found, err := cache.Fetch(ctx, "test-key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "test-value", value)
}

func TestMemoryCache_Fetch_NotFound(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()

	value, found, err := cache.Fetch(context.Background(), "non-existent")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestMemoryCache_Fetch_StoredNil(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "nil-key", nil, 0)
	require.NoError(t, err)

	value, found, err := cache.Fetch(ctx, "nil-key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, value)
}

func TestMemoryCache_Expiration(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(WithClock(clock.Now))
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "short", "expires-soon", 1)
	require.NoError(t, err)
	_, err = cache.Store(ctx, "long", "expires-later", 3600)
	require.NoError(t, err)

	found, err := cache.Exists(ctx, "short")
	require.NoError(t, err)
	assert.True(t, found)

	clock.Advance(2 * time.Second)

	found, err = cache.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)

	value, found, err := cache.Fetch(ctx, "long")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "expires-later", value)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(WithClock(clock.Now))
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "forever", "value", 0)
	require.NoError(t, err)

	clock.Advance(10 * 365 * 24 * time.Hour)

	found, err := cache.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryCache_TTLBeyondDurationRange(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(WithClock(clock.Now))
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "huge", "value", 10_000_000_000)
	require.NoError(t, err)

	found, err := cache.Exists(ctx, "huge")
	require.NoError(t, err)
	assert.True(t, found)

	clock.Advance(200 * 365 * 24 * time.Hour)

	found, err = cache.Exists(ctx, "huge")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTTLConversionSaturates(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, 90*time.Second, ttlDuration(90))
	assert.Equal(t, time.Duration(maxTTLSeconds)*time.Second, ttlDuration(10_000_000_000))
	assert.Equal(t, time.Duration(maxTTLSeconds)*time.Second, ttlDuration(math.MaxInt64))

	assert.Equal(t, int64(1_700_000_090), expiryUnix(now, 90))
	assert.Equal(t, int64(1_710_000_000_000), expiryUnix(now, 1_708_300_000_000))
	assert.Equal(t, int64(math.MaxInt64), expiryUnix(now, math.MaxInt64))
}

func TestMemoryCache_NegativeTTLRemovesEntry(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "key", "value", 3600)
	require.NoError(t, err)

	ok, err := cache.Store(ctx, "key", "new-value", -1)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_Store_Overwrite(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "key", "value1", 3600)
	require.NoError(t, err)
	_, err = cache.Store(ctx, "key", "value2", 3600)
	require.NoError(t, err)

	value, _, err := cache.Fetch(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value2", value)
}

func TestMemoryCache_Remove(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_, err := cache.Store(ctx, "test-key", "test-value", 3600)
	require.NoError(t, err)

	ok, err := cache.Remove(ctx, "test-key")
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := cache.Exists(ctx, "test-key")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing a missing key still succeeds
	ok, err = cache.Remove(ctx, "non-existent")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := cache.Store(ctx, fmt.Sprintf("key-%d", i), i, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, cache.Size())

	ok, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, cache.Size())
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(WithClock(clock.Now))
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := cache.Store(ctx, fmt.Sprintf("short-%d", i), i, 1)
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := cache.Store(ctx, fmt.Sprintf("long-%d", i), i, 36000)
		require.NoError(t, err)
	}
	assert.Equal(t, 15, cache.Size())

	clock.Advance(5 * time.Second)
	cache.removeExpired()

	assert.Equal(t, 5, cache.Size())
}

func TestMemoryCache_CleanupRoutineSweeps(t *testing.T) {
	clock := newFakeClock()
	cache := newMemoryCache(WithClock(clock.Now), WithCleanupInterval(10*time.Millisecond))
	defer cache.Close()

	_, err := cache.Store(context.Background(), "short", "value", 1)
	require.NoError(t, err)
	clock.Advance(2 * time.Second)

	assert.Eventually(t, func() bool { return cache.Size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := newMemoryCache()
	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}

func TestMemoryCache_DifferentTypes(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"string", "key1", "string-value"},
		{"int", "key2", 42},
		{"struct", "key3", struct{ Name string }{Name: "test"}},
		{"slice", "key4", []string{"a", "b", "c"}},
		{"map", "key5", map[string]int{"a": 1, "b": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cache.Store(ctx, tt.key, tt.value, 3600)
			require.NoError(t, err)

			value, found, err := cache.Fetch(ctx, tt.key)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = cache.Store(ctx, fmt.Sprintf("concurrent-%d-%d", id, j), j, 3600)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _, _ = cache.Fetch(ctx, fmt.Sprintf("concurrent-0-%d", j))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, cache.Size())
}

func TestNewMemoryCache_PublicConstructor(t *testing.T) {
	backend := NewMemoryCache()
	require.NotNil(t, backend)
	defer backend.(Closer).Close()

	ctx := context.Background()
	ok, err := backend.Store(ctx, "test", "value", 3600)
	require.NoError(t, err)
	assert.True(t, ok)

	value, found, err := backend.Fetch(ctx, "test")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)
}

func BenchmarkMemoryCache_Store(b *testing.B) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Store(ctx, "bench-key", "bench-value", 3600)
	}
}

func BenchmarkMemoryCache_Fetch(b *testing.B) {
	cache := newMemoryCache()
	defer cache.Close()
	ctx := context.Background()

	_, _ = cache.Store(ctx, "bench-key", "bench-value", 3600)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Fetch(ctx, "bench-key")
	}
}
