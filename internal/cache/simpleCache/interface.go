package simpleCache

import (
	"context"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Service defines the key-validated, TTL-normalized cache API
type Service interface {
	Get(ctx context.Context, key string, def interface{}) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl TTL) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) (bool, error)

	GetMultiple(ctx context.Context, keys []string, def interface{}) (*orderedmap.OrderedMap[string, interface{}], error)
	SetMultiple(ctx context.Context, values *orderedmap.OrderedMap[string, interface{}], ttl TTL) (bool, error)
	DeleteMultiple(ctx context.Context, keys []string) (bool, error)
}
