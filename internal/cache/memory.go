package cache

import (
	"context"
	"sync"
	"time"
)

const defaultCleanupInterval = 5 * time.Minute

// MemoryCache implements Backend using in-memory storage
type MemoryCache struct {
	data  map[string]*cacheEntry
	mutex sync.RWMutex

	now             func() time.Time
	cleanupInterval time.Duration
	stop            chan struct{}
	closeOnce       sync.Once
}

// cacheEntry represents a single cache entry with expiration.
// A zero expiresAt means the entry never expires.
type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryOption configures a MemoryCache
type MemoryOption func(*MemoryCache)

// WithCleanupInterval sets how often expired entries are swept
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(m *MemoryCache) {
		if interval > 0 {
			m.cleanupInterval = interval
		}
	}
}

// WithClock replaces time.Now, letting callers simulate expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryCache) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(opts ...MemoryOption) Backend {
	return newMemoryCache(opts...)
}

// newMemoryCache creates the concrete implementation
func newMemoryCache(opts ...MemoryOption) *MemoryCache {
	cache := &MemoryCache{
		data:            make(map[string]*cacheEntry),
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	// Start cleanup routine
	go cache.cleanupExpired()

	return cache
}

// Store saves a value; ttlSeconds of zero keeps it until removed
func (m *MemoryCache) Store(ctx context.Context, key string, value interface{}, ttlSeconds int) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// An already expired write behaves like a removal
	if ttlSeconds < 0 {
		delete(m.data, key)
		return true, nil
	}

	entry := &cacheEntry{value: value}
	if ttlSeconds > 0 {
		entry.expiresAt = m.now().Add(ttlDuration(ttlSeconds))
	}
	m.data[key] = entry

	return true, nil
}

// Fetch retrieves a cached value for the given key
func (m *MemoryCache) Fetch(ctx context.Context, key string) (interface{}, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	entry, exists := m.data[key]
	if !exists || entry.expired(m.now()) {
		// Expired entries are removed by the background routine
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Exists reports whether a live entry is stored under key
func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := m.Fetch(ctx, key)
	return found, err
}

// Remove deletes an entry from the cache
func (m *MemoryCache) Remove(ctx context.Context, key string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.data, key)
	return true, nil
}

// Clear drops every entry
func (m *MemoryCache) Clear(ctx context.Context) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data = make(map[string]*cacheEntry)
	return true, nil
}

// Close stops the cleanup routine
func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

// cleanupExpired removes expired entries from the cache
func (m *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryCache) removeExpired() {
	now := m.now()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, entry := range m.data {
		if entry.expired(now) {
			delete(m.data, key)
		}
	}
}

// Size returns the current number of cached entries (for monitoring)
func (m *MemoryCache) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}
