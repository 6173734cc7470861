package metrics

import (
	"context"
	"time"

	"simplecache/internal/cache/simpleCache"
	"simplecache/internal/logger"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// instrumentedCache records every call of the wrapped cache facade
type instrumentedCache struct {
	next simpleCache.Service
}

// InstrumentCache wraps a cache facade so each operation is counted and timed
func InstrumentCache(next simpleCache.Service) simpleCache.Service {
	return &instrumentedCache{next: next}
}

func (c *instrumentedCache) Get(ctx context.Context, key string, def interface{}) (interface{}, error) {
	started := time.Now()
	value, err := c.next.Get(ctx, key, def)
	RecordOperation(logger.OpCacheGet, err, started)
	return value, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, value interface{}, ttl simpleCache.TTL) (bool, error) {
	started := time.Now()
	ok, err := c.next.Set(ctx, key, value, ttl)
	RecordOperation(logger.OpCacheSet, err, started)
	return ok, err
}

func (c *instrumentedCache) Has(ctx context.Context, key string) (bool, error) {
	started := time.Now()
	ok, err := c.next.Has(ctx, key)
	RecordOperation(logger.OpCacheHas, err, started)
	return ok, err
}

func (c *instrumentedCache) Delete(ctx context.Context, key string) (bool, error) {
	started := time.Now()
	ok, err := c.next.Delete(ctx, key)
	RecordOperation(logger.OpCacheDelete, err, started)
	return ok, err
}

func (c *instrumentedCache) Clear(ctx context.Context) (bool, error) {
	started := time.Now()
	ok, err := c.next.Clear(ctx)
	RecordOperation(logger.OpCacheClear, err, started)
	return ok, err
}

func (c *instrumentedCache) GetMultiple(ctx context.Context, keys []string, def interface{}) (*orderedmap.OrderedMap[string, interface{}], error) {
	started := time.Now()
	values, err := c.next.GetMultiple(ctx, keys, def)
	RecordOperation(logger.OpCacheGetMultiple, err, started)
	RecordBatchKeys(logger.OpCacheGetMultiple, len(keys))
	return values, err
}

func (c *instrumentedCache) SetMultiple(ctx context.Context, values *orderedmap.OrderedMap[string, interface{}], ttl simpleCache.TTL) (bool, error) {
	started := time.Now()
	ok, err := c.next.SetMultiple(ctx, values, ttl)
	RecordOperation(logger.OpCacheSetMultiple, err, started)
	if values != nil {
		RecordBatchKeys(logger.OpCacheSetMultiple, values.Len())
	}
	return ok, err
}

func (c *instrumentedCache) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	started := time.Now()
	ok, err := c.next.DeleteMultiple(ctx, keys)
	RecordOperation(logger.OpCacheDeleteMultiple, err, started)
	RecordBatchKeys(logger.OpCacheDeleteMultiple, len(keys))
	return ok, err
}
