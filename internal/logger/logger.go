package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"simplecache/internal/models"

	"github.com/google/uuid"
)

// DatabaseLogger implements the Service interface using a database backend
type DatabaseLogger struct {
	db      DatabaseConnection
	pending sync.WaitGroup
}

// NewDatabaseLogger creates a new database logger
func NewDatabaseLogger(db DatabaseConnection) Service {
	return &DatabaseLogger{
		db: db,
	}
}

// LogInfo logs an informational message (no severity)
func (l *DatabaseLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
	l.logEntry(ctx, "", operation, "", message, nil, metadata)
}

// LogSuccess logs a successful operation (no severity)
func (l *DatabaseLogger) LogSuccess(ctx context.Context, operation, cacheKey, message string, metadata map[string]interface{}) {
	l.logEntry(ctx, "", operation, cacheKey, message, nil, metadata)
}

// LogError logs an error with required severity
func (l *DatabaseLogger) LogError(ctx context.Context, operation, cacheKey, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
	l.logEntry(ctx, severity, operation, cacheKey, message, err, metadata)
}

// logEntry creates and stores log entries
func (l *DatabaseLogger) logEntry(ctx context.Context, severity models.LogSeverity, operation, cacheKey, message string, err error, metadata map[string]interface{}) {
	entry := newLogEntry(ctx, severity, operation, cacheKey, message, err, metadata)

	// Insert log entry asynchronously to avoid blocking the main flow
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := l.db.InsertLog(logCtx, entry); err != nil {
			fmt.Printf("Failed to insert log entry: %v\n", err)
		}
	}()
}

// Close waits for in-flight inserts, then closes the database connection
func (l *DatabaseLogger) Close() error {
	l.pending.Wait()
	return l.db.Close()
}

// newLogEntry builds an entry stamped with the log event found in ctx
func newLogEntry(ctx context.Context, severity models.LogSeverity, operation, cacheKey, message string, err error, metadata map[string]interface{}) *models.LogEntry {
	logEvent := GetLogEvent(ctx)

	entry := &models.LogEntry{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		Severity:    severity,
		Message:     message,
		Operation:   operation,
		CacheKey:    cacheKey,
		ProcessID:   logEvent.ProcessID,
		ProcessType: logEvent.ProcessType,
		ClientIP:    logEvent.ClientIP,
		Metadata:    metadata,
	}

	if err != nil {
		entry.Error = err.Error()
	}

	return entry
}

// LogOperations defines constants for common operations
const (
	OpCacheGet            = "cache_get"
	OpCacheSet            = "cache_set"
	OpCacheHas            = "cache_has"
	OpCacheDelete         = "cache_delete"
	OpCacheClear          = "cache_clear"
	OpCacheGetMultiple    = "cache_get_multiple"
	OpCacheSetMultiple    = "cache_set_multiple"
	OpCacheDeleteMultiple = "cache_delete_multiple"
	OpValidateKey         = "validate_key"
	OpRateLimited         = "rate_limited"
	OpServerStart         = "server_start"
	OpServerShutdown      = "server_shutdown"
	OpHealthCheck         = "health_check"
	OpBackendInit         = "backend_init"
)
