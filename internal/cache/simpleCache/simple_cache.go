package simpleCache

import (
	"context"
	"errors"
	"time"

	"simplecache/internal/cache"
	"simplecache/internal/logger"
	"simplecache/internal/models"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// simpleCache implements Service on top of a cache.Backend
type simpleCache struct {
	backend cache.Backend
	logger  logger.Service
	now     func() time.Time
}

// Option configures the cache facade
type Option func(*simpleCache)

// WithClock replaces time.Now as the anchor for interval TTLs
func WithClock(now func() time.Time) Option {
	return func(s *simpleCache) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a cache facade delegating storage to backend
func New(backend cache.Backend, logger logger.Service, opts ...Option) Service {
	s := &simpleCache{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key, or def when the key is absent.
// A stored nil is returned as nil.
func (s *simpleCache) Get(ctx context.Context, key string, def interface{}) (interface{}, error) {
	key, err := validateKey(logger.OpCacheGet, key)
	if err != nil {
		return nil, err
	}

	value, found, err := s.backend.Fetch(ctx, key)
	if err != nil {
		return nil, s.failure(ctx, logger.OpCacheGet, key, err)
	}
	if !found {
		return def, nil
	}
	return value, nil
}

// Set stores value under key; a nil ttl lets the backend decide expiration
func (s *simpleCache) Set(ctx context.Context, key string, value interface{}, ttl TTL) (bool, error) {
	key, err := validateKey(logger.OpCacheSet, key)
	if err != nil {
		return false, err
	}

	ok, err := s.backend.Store(ctx, key, value, NormalizeTTL(ttl, s.now()))
	if err != nil {
		return false, s.failure(ctx, logger.OpCacheSet, key, err)
	}
	return ok, nil
}

// Has reports whether key is present in the backend
func (s *simpleCache) Has(ctx context.Context, key string) (bool, error) {
	key, err := validateKey(logger.OpCacheHas, key)
	if err != nil {
		return false, err
	}

	ok, err := s.backend.Exists(ctx, key)
	if err != nil {
		return false, s.failure(ctx, logger.OpCacheHas, key, err)
	}
	return ok, nil
}

// Delete removes key from the backend
func (s *simpleCache) Delete(ctx context.Context, key string) (bool, error) {
	key, err := validateKey(logger.OpCacheDelete, key)
	if err != nil {
		return false, err
	}

	ok, err := s.backend.Remove(ctx, key)
	if err != nil {
		return false, s.failure(ctx, logger.OpCacheDelete, key, err)
	}
	return ok, nil
}

// Clear empties the backend
func (s *simpleCache) Clear(ctx context.Context) (bool, error) {
	ok, err := s.backend.Clear(ctx)
	if err != nil {
		return false, s.failure(ctx, logger.OpCacheClear, "", err)
	}
	return ok, nil
}

// GetMultiple fetches every key in order, substituting def for absent keys.
// All keys are validated before the backend is touched. A backend failure on
// one key does not stop the others; that key maps to def and the failure is
// part of the returned error.
func (s *simpleCache) GetMultiple(ctx context.Context, keys []string, def interface{}) (*orderedmap.OrderedMap[string, interface{}], error) {
	validated, err := validateKeys(logger.OpCacheGetMultiple, keys)
	if err != nil {
		return nil, err
	}

	values := orderedmap.New[string, interface{}]()
	var errs []error

	for _, key := range validated {
		value, found, err := s.backend.Fetch(ctx, key)
		if err != nil {
			errs = append(errs, s.failure(ctx, logger.OpCacheGetMultiple, key, err))
		}
		if err != nil || !found {
			value = def
		}
		values.Set(key, value)
	}

	return values, errors.Join(errs...)
}

// SetMultiple stores every pair in insertion order with one shared TTL and
// reports true only if every store succeeded. Every pair is attempted.
func (s *simpleCache) SetMultiple(ctx context.Context, values *orderedmap.OrderedMap[string, interface{}], ttl TTL) (bool, error) {
	if values == nil {
		return false, models.NewInvalidArgumentError(logger.OpCacheSetMultiple, "", msgValuesNotIterable)
	}

	// Normalized once so every entry shares the same expiration instant
	seconds := NormalizeTTL(ttl, s.now())

	keys := make([]string, 0, values.Len())
	for pair := values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if _, err := validateKeys(logger.OpCacheSetMultiple, keys); err != nil {
		return false, err
	}

	success := true
	var errs []error

	for pair := values.Oldest(); pair != nil; pair = pair.Next() {
		ok, err := s.backend.Store(ctx, pair.Key, pair.Value, seconds)
		if err != nil {
			errs = append(errs, s.failure(ctx, logger.OpCacheSetMultiple, pair.Key, err))
			ok = false
		}
		success = success && ok
	}

	return success, errors.Join(errs...)
}

// DeleteMultiple removes every key in order and reports true only if every
// removal succeeded. Every key is attempted.
func (s *simpleCache) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	validated, err := validateKeys(logger.OpCacheDeleteMultiple, keys)
	if err != nil {
		return false, err
	}

	success := true
	var errs []error

	for _, key := range validated {
		ok, err := s.backend.Remove(ctx, key)
		if err != nil {
			errs = append(errs, s.failure(ctx, logger.OpCacheDeleteMultiple, key, err))
			ok = false
		}
		success = success && ok
	}

	return success, errors.Join(errs...)
}

// failure wraps and logs a backend error
func (s *simpleCache) failure(ctx context.Context, op, key string, err error) error {
	s.logger.LogError(ctx, op, key, "Cache backend operation failed", err, models.LogSeverityMedium, nil)
	return models.NewCacheFailureError(op, key, err)
}
