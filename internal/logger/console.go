package logger

import (
	"context"
	"strings"

	"simplecache/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConsoleLogger implements Service by writing entries through zap
type ConsoleLogger struct {
	log *zap.Logger
}

// NewConsoleLogger builds a zap logger writing to stderr, leaving stdout to command output.
// encoding is "json" or "console"; an unknown level falls back to info.
func NewConsoleLogger(level, encoding string) (Service, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	if encoding != "console" {
		encoding = "json"
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	z, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(z), nil
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(z *zap.Logger) Service {
	return &ConsoleLogger{log: z}
}

// LogInfo logs an informational message
func (l *ConsoleLogger) LogInfo(ctx context.Context, operation, message string, metadata map[string]interface{}) {
	entry := newLogEntry(ctx, "", operation, "", message, nil, metadata)
	l.log.Info(message, fields(entry)...)
}

// LogSuccess logs a successful operation
func (l *ConsoleLogger) LogSuccess(ctx context.Context, operation, cacheKey, message string, metadata map[string]interface{}) {
	entry := newLogEntry(ctx, "", operation, cacheKey, message, nil, metadata)
	l.log.Info(message, fields(entry)...)
}

// LogError logs an error; high severity maps to zap's error level, the rest to warn
func (l *ConsoleLogger) LogError(ctx context.Context, operation, cacheKey, message string, err error, severity models.LogSeverity, metadata map[string]interface{}) {
	entry := newLogEntry(ctx, severity, operation, cacheKey, message, err, metadata)
	if severity == models.LogSeverityHigh {
		l.log.Error(message, fields(entry)...)
		return
	}
	l.log.Warn(message, fields(entry)...)
}

// Close flushes buffered entries
func (l *ConsoleLogger) Close() error {
	// Sync on a terminal returns EINVAL on some platforms
	_ = l.log.Sync()
	return nil
}

func fields(entry *models.LogEntry) []zap.Field {
	fs := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("process_id", entry.ProcessID),
		zap.String("process_type", string(entry.ProcessType)),
	}
	if entry.CacheKey != "" {
		fs = append(fs, zap.String("cache_key", entry.CacheKey))
	}
	if entry.ClientIP != "" {
		fs = append(fs, zap.String("client_ip", entry.ClientIP))
	}
	if entry.Severity != "" {
		fs = append(fs, zap.String("severity", string(entry.Severity)))
	}
	if entry.Error != "" {
		fs = append(fs, zap.String("error", entry.Error))
	}
	if len(entry.Metadata) > 0 {
		fs = append(fs, zap.Any("metadata", entry.Metadata))
	}
	return fs
}
