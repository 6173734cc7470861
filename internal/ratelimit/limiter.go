package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	waitPollInterval  = 100 * time.Millisecond
	idleBucketTTL     = 30 * time.Minute
	idleSweepInterval = 10 * time.Minute
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a full token bucket with the given capacity and refill rate
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity, refillRate int64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: float64(refillRate),
		lastRefill: now(),
		now:        now,
	}
}

// Allow consumes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// giveBack returns one token, never exceeding capacity
func (tb *TokenBucket) giveBack() {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.tokens = min(tb.capacity, tb.tokens+1)
}

// idleSince reports whether the bucket has not refilled since cutoff
func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	return tb.lastRefill.Before(cutoff)
}

// refill adds tokens for the time elapsed since the last refill.
// Callers must hold the mutex.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// TwoTierRateLimiter enforces a global limit and a per-client-IP limit
type TwoTierRateLimiter struct {
	globalBucket  *TokenBucket
	ipBuckets     sync.Map // map[string]*TokenBucket
	perIPCapacity int64
	perIPRate     int64
	now           func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewTwoTierRateLimiter creates a new two-tier rate limiter and starts the
// sweep of idle per-IP buckets. Close stops the sweep.
func NewTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate int64) *TwoTierRateLimiter {
	limiter := newTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate, time.Now)
	go limiter.sweepIdleBuckets(idleSweepInterval)
	return limiter
}

func newTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate int64, now func() time.Time) *TwoTierRateLimiter {
	return &TwoTierRateLimiter{
		globalBucket:  newTokenBucket(globalCapacity, globalRate, now),
		perIPCapacity: perIPCapacity,
		perIPRate:     perIPRate,
		now:           now,
		stop:          make(chan struct{}),
	}
}

// Allow checks the global limit, then the per-IP limit
func (trl *TwoTierRateLimiter) Allow(clientIP string) bool {
	if !trl.globalBucket.Allow() {
		return false
	}

	if !trl.bucketFor(clientIP).Allow() {
		// The request is rejected, so the global token was not really spent
		trl.globalBucket.giveBack()
		return false
	}

	return true
}

// Wait blocks until a token is available for clientIP or ctx is done
func (trl *TwoTierRateLimiter) Wait(ctx context.Context, clientIP string) error {
	if trl.Allow(clientIP) {
		return nil
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if trl.Allow(clientIP) {
				return nil
			}
		}
	}
}

// Close stops the idle bucket sweep
func (trl *TwoTierRateLimiter) Close() {
	trl.closeOnce.Do(func() { close(trl.stop) })
}

func (trl *TwoTierRateLimiter) bucketFor(clientIP string) *TokenBucket {
	if bucket, ok := trl.ipBuckets.Load(clientIP); ok {
		return bucket.(*TokenBucket)
	}

	actual, _ := trl.ipBuckets.LoadOrStore(clientIP, newTokenBucket(trl.perIPCapacity, trl.perIPRate, trl.now))
	return actual.(*TokenBucket)
}

func (trl *TwoTierRateLimiter) sweepIdleBuckets(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-trl.stop:
			return
		case <-ticker.C:
			trl.removeIdleBuckets()
		}
	}
}

// removeIdleBuckets drops per-IP buckets unused for idleBucketTTL
func (trl *TwoTierRateLimiter) removeIdleBuckets() {
	cutoff := trl.now().Add(-idleBucketTTL)

	trl.ipBuckets.Range(func(key, value interface{}) bool {
		if value.(*TokenBucket).idleSince(cutoff) {
			trl.ipBuckets.Delete(key)
		}
		return true
	})
}

func (trl *TwoTierRateLimiter) bucketCount() int {
	count := 0
	trl.ipBuckets.Range(func(interface{}, interface{}) bool {
		count++
		return true
	})
	return count
}
