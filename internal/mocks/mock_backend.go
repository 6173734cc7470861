package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of cache.Backend
type MockBackend struct {
	mock.Mock
}

// Store mocks the Store method of cache.Backend
func (m *MockBackend) Store(ctx context.Context, key string, value interface{}, ttlSeconds int) (bool, error) {
	args := m.Called(ctx, key, value, ttlSeconds)
	return args.Bool(0), args.Error(1)
}

// Fetch mocks the Fetch method of cache.Backend
func (m *MockBackend) Fetch(ctx context.Context, key string) (interface{}, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1), args.Error(2)
}

// Exists mocks the Exists method of cache.Backend
func (m *MockBackend) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Remove mocks the Remove method of cache.Backend
func (m *MockBackend) Remove(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Clear mocks the Clear method of cache.Backend
func (m *MockBackend) Clear(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
