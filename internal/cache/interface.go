package cache

import (
	"context"
	"math"
	"time"
)

// maxTTLSeconds is the longest TTL a time.Duration can carry
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

// Backend defines the storage capability the cache facade delegates to.
// External packages should use this interface, not the concrete implementations.
//
// ttlSeconds follows a single convention across implementations: zero means
// the entry never expires, a negative value means it is already expired.
type Backend interface {
	Store(ctx context.Context, key string, value interface{}, ttlSeconds int) (bool, error)
	Fetch(ctx context.Context, key string) (value interface{}, found bool, err error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) (bool, error)
}

// Closer is implemented by backends holding connections or files
type Closer interface {
	Close() error
}

// ttlDuration converts ttlSeconds to a Duration, saturating at maxTTLSeconds
func ttlDuration(ttlSeconds int) time.Duration {
	if int64(ttlSeconds) > maxTTLSeconds {
		return time.Duration(maxTTLSeconds) * time.Second
	}
	return time.Duration(ttlSeconds) * time.Second
}

// expiryUnix returns now+ttlSeconds in unix seconds, saturating at math.MaxInt64
func expiryUnix(now time.Time, ttlSeconds int) int64 {
	base := now.Unix()
	if int64(ttlSeconds) > math.MaxInt64-base {
		return math.MaxInt64
	}
	return base + int64(ttlSeconds)
}
