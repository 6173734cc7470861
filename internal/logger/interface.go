package logger

import (
	"context"

	"simplecache/internal/models"
)

// Service records cache and server activity. cacheKey names the entry an
// operation touched and is empty for keyless operations such as Clear.
type Service interface {
	LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{})
	LogSuccess(ctx context.Context, operation, cacheKey, message string, metadata map[string]interface{})
	LogError(ctx context.Context, operation, cacheKey, message string, err error, severity models.LogSeverity, metadata map[string]interface{})
	Close() error
}

// DatabaseConnection is the storage the database logger writes entries to
type DatabaseConnection interface {
	InsertLog(ctx context.Context, entry *models.LogEntry) error
	Close() error
	Ping(ctx context.Context) error
}
