package mocks

import (
	"context"

	"simplecache/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of logger.Service. Cache operations log
// through LogError with the failing key as cacheKey.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
	m.Called(ctx, operation, message, metadata)
}

func (m *MockLogger) LogSuccess(ctx context.Context, operation, cacheKey, message string, metadata map[string]interface{}) {
	m.Called(ctx, operation, cacheKey, message, metadata)
}

func (m *MockLogger) LogError(ctx context.Context, operation, cacheKey, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
	m.Called(ctx, operation, cacheKey, message, err, severity, metadata)
}

func (m *MockLogger) Close() error {
	return m.Called().Error(0)
}
