package logger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"simplecache/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingConnection captures inserted entries
type recordingConnection struct {
	mu      sync.Mutex
	entries []*models.LogEntry
	closed  bool
	err     error
}

func (c *recordingConnection) InsertLog(ctx context.Context, entry *models.LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return c.err
}

func (c *recordingConnection) Close() error {
	c.closed = true
	return nil
}

func (c *recordingConnection) Ping(ctx context.Context) error {
	return nil
}

func TestDatabaseLogger_LogError(t *testing.T) {
	conn := &recordingConnection{}
	log := NewDatabaseLogger(conn)

	event := NewRequestLogEvent("10.0.0.1")
	ctx := WithLogEvent(context.Background(), event)

	log.LogError(ctx, OpCacheSet, "user.42", "Backend store failed", errors.New("boom"), models.LogSeverityMedium, map[string]interface{}{"ttl": 60})

	// Close waits for the asynchronous insert
	require.NoError(t, log.Close())
	assert.True(t, conn.closed)

	require.Len(t, conn.entries, 1)
	entry := conn.entries[0]
	assert.Equal(t, OpCacheSet, entry.Operation)
	assert.Equal(t, "user.42", entry.CacheKey)
	assert.Equal(t, models.LogSeverityMedium, entry.Severity)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, event.ProcessID, entry.ProcessID)
	assert.Equal(t, models.ProcessTypeRequest, entry.ProcessType)
	assert.Equal(t, "10.0.0.1", entry.ClientIP)
	assert.NotEmpty(t, entry.ID)
}

func TestDatabaseLogger_InsertFailureDoesNotPanic(t *testing.T) {
	conn := &recordingConnection{err: errors.New("db down")}
	log := NewDatabaseLogger(conn)

	log.LogInfo(context.Background(), OpServerStart, "starting", nil)
	log.LogSuccess(context.Background(), OpCacheGet, "key", "hit", nil)

	require.NoError(t, log.Close())
	assert.Len(t, conn.entries, 2)
}

func TestGetLogEvent_DefaultsToInternal(t *testing.T) {
	event := GetLogEvent(context.Background())

	require.NotNil(t, event)
	assert.Equal(t, models.ProcessTypeInternal, event.ProcessType)
	assert.NotEmpty(t, event.ProcessID)
}

func TestNewCommandLogEvent(t *testing.T) {
	event := NewCommandLogEvent()
	assert.Equal(t, models.ProcessTypeCommand, event.ProcessType)
}

func TestConsoleLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := WithLogEvent(context.Background(), NewCommandLogEvent())

	log.LogInfo(ctx, OpServerStart, "starting", map[string]interface{}{"backend": "memory"})
	log.LogError(ctx, OpCacheGet, "key", "fetch failed", errors.New("timeout"), models.LogSeverityMedium, nil)
	log.LogError(ctx, OpBackendInit, "", "init failed", errors.New("refused"), models.LogSeverityHigh, nil)
	require.NoError(t, log.Close())

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "memory", entries[0].ContextMap()["metadata"].(map[string]interface{})["backend"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "key", entries[1].ContextMap()["cache_key"])
	assert.Equal(t, "timeout", entries[1].ContextMap()["error"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "command", entries[2].ContextMap()["process_type"])
}

func TestNewConsoleLogger(t *testing.T) {
	log, err := NewConsoleLogger("not-a-level", "console")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, log.Close())
}
