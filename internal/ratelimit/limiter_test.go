package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
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

func drain(bucket *TokenBucket) int {
	allowed := 0
	for bucket.Allow() {
		allowed++
	}
	return allowed
}

func TestTokenBucket_Allow(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, 1, clock.Now)

	assert.Equal(t, 3, drain(bucket))

	clock.Advance(1100 * time.Millisecond)
	assert.True(t, bucket.Allow())
	assert.False(t, bucket.Allow())
}

func TestTokenBucket_RefillRespectsCapacity(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(5, 2, clock.Now)
	drain(bucket)

	clock.Advance(time.Second)
	assert.Equal(t, 2, drain(bucket))

	clock.Advance(time.Hour)
	assert.Equal(t, 5, drain(bucket))
}

func TestTokenBucket_RefillPartial(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 10, clock.Now)
	drain(bucket)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 5, drain(bucket))
}

func TestTokenBucket_FractionalRefillAccumulates(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(1, 1, clock.Now)
	drain(bucket)

	// Three polls 400ms apart add up to one token
	clock.Advance(400 * time.Millisecond)
	assert.False(t, bucket.Allow())
	clock.Advance(400 * time.Millisecond)
	assert.False(t, bucket.Allow())
	clock.Advance(400 * time.Millisecond)
	assert.True(t, bucket.Allow())
}

func TestTwoTierRateLimiter_PerIPLimit(t *testing.T) {
	limiter := newTwoTierRateLimiter(10, 10, 3, 3, newFakeClock().Now)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("192.168.1.1"), "request %d", i+1)
	}
	assert.False(t, limiter.Allow("192.168.1.1"))

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("192.168.1.2"), "request %d", i+1)
	}
}

func TestTwoTierRateLimiter_GlobalLimit(t *testing.T) {
	limiter := newTwoTierRateLimiter(2, 2, 10, 10, newFakeClock().Now)

	assert.True(t, limiter.Allow("192.168.1.1"))
	assert.True(t, limiter.Allow("192.168.1.2"))
	assert.False(t, limiter.Allow("192.168.1.3"))
}

func TestTwoTierRateLimiter_GlobalVsPerIP(t *testing.T) {
	limiter := newTwoTierRateLimiter(5, 5, 3, 3, newFakeClock().Now)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("192.168.1.1"))
	}
	for i := 0; i < 2; i++ {
		assert.True(t, limiter.Allow("192.168.1.2"))
	}
	assert.False(t, limiter.Allow("192.168.1.2"))
}

func TestTwoTierRateLimiter_ReturnTokenOnPerIPDenial(t *testing.T) {
	limiter := newTwoTierRateLimiter(3, 3, 2, 2, newFakeClock().Now)

	assert.True(t, limiter.Allow("192.168.1.1"))
	assert.True(t, limiter.Allow("192.168.1.1"))
	assert.False(t, limiter.Allow("192.168.1.1"))

	// The denied request gave its global token back
	assert.True(t, limiter.Allow("192.168.1.2"))
	assert.False(t, limiter.Allow("192.168.1.3"))
}

func TestTwoTierRateLimiter_Wait(t *testing.T) {
	limiter := newTwoTierRateLimiter(1, 10, 1, 10, time.Now)
	require.True(t, limiter.Allow("192.168.1.1"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, "192.168.1.1")

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTwoTierRateLimiter_WaitImmediate(t *testing.T) {
	limiter := newTwoTierRateLimiter(1, 1, 1, 1, newFakeClock().Now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A free token is taken without looking at the context
	assert.NoError(t, limiter.Wait(ctx, "192.168.1.1"))
}

func TestTwoTierRateLimiter_WaitTimeout(t *testing.T) {
	limiter := newTwoTierRateLimiter(1, 1, 1, 1, newFakeClock().Now)
	limiter.Allow("192.168.1.1")

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx, "192.168.1.1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTwoTierRateLimiter_RemoveIdleBuckets(t *testing.T) {
	clock := newFakeClock()
	limiter := newTwoTierRateLimiter(100, 100, 3, 3, clock.Now)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	require.Equal(t, 2, limiter.bucketCount())

	clock.Advance(20 * time.Minute)
	limiter.Allow("10.0.0.2")

	clock.Advance(15 * time.Minute)
	limiter.removeIdleBuckets()

	assert.Equal(t, 1, limiter.bucketCount())
	_, kept := limiter.ipBuckets.Load("10.0.0.2")
	assert.True(t, kept)
}

func TestTwoTierRateLimiter_ConcurrentIPBucketCreation(t *testing.T) {
	limiter := newTwoTierRateLimiter(500, 500, 10, 10, time.Now)

	const goroutines, ipsPerGoroutine = 10, 5
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < ipsPerGoroutine; i++ {
				limiter.Allow(fmt.Sprintf("10.%d.1.%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, goroutines*ipsPerGoroutine, limiter.bucketCount())
}

func TestTwoTierRateLimiter_CloseIsIdempotent(t *testing.T) {
	limiter := NewTwoTierRateLimiter(1, 1, 1, 1)
	limiter.Close()
	limiter.Close()
}

func BenchmarkTwoTierRateLimiter_Allow(b *testing.B) {
	limiter := NewTwoTierRateLimiter(1000, 1000, 1000, 1000)
	defer limiter.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			limiter.Allow("192.168.1.1")
		}
	})
}
