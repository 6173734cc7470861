package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRateLimiter is a testify mock of ratelimit.Service
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(clientIP string) bool {
	args := m.Called(clientIP)
	return args.Bool(0)
}

func (m *MockRateLimiter) Wait(ctx context.Context, clientIP string) error {
	args := m.Called(ctx, clientIP)
	return args.Error(0)
}

func (m *MockRateLimiter) Close() {
	m.Called()
}
