package mocks

import (
	"context"

	"simplecache/internal/cache/simpleCache"

	"github.com/stretchr/testify/mock"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MockCacheService is a mock implementation of simpleCache.Service
type MockCacheService struct {
	mock.Mock
}

// Get mocks the Get method of simpleCache.Service
func (m *MockCacheService) Get(ctx context.Context, key string, def interface{}) (interface{}, error) {
	args := m.Called(ctx, key, def)
	return args.Get(0), args.Error(1)
}

// Set mocks the Set method of simpleCache.Service
func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl simpleCache.TTL) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

// Has mocks the Has method of simpleCache.Service
func (m *MockCacheService) Has(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Delete mocks the Delete method of simpleCache.Service
func (m *MockCacheService) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Clear mocks the Clear method of simpleCache.Service
func (m *MockCacheService) Clear(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// GetMultiple mocks the GetMultiple method of simpleCache.Service
func (m *MockCacheService) GetMultiple(ctx context.Context, keys []string, def interface{}) (*orderedmap.OrderedMap[string, interface{}], error) {
	args := m.Called(ctx, keys, def)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderedmap.OrderedMap[string, interface{}]), args.Error(1)
}

// SetMultiple mocks the SetMultiple method of simpleCache.Service
func (m *MockCacheService) SetMultiple(ctx context.Context, values *orderedmap.OrderedMap[string, interface{}], ttl simpleCache.TTL) (bool, error) {
	args := m.Called(ctx, values, ttl)
	return args.Bool(0), args.Error(1)
}

// DeleteMultiple mocks the DeleteMultiple method of simpleCache.Service
func (m *MockCacheService) DeleteMultiple(ctx context.Context, keys []string) (bool, error) {
	args := m.Called(ctx, keys)
	return args.Bool(0), args.Error(1)
}
