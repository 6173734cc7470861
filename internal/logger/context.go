package logger

import (
	"context"
	"time"

	"simplecache/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const logEventKey contextKey = "log_event"

// NewLogEvent starts a trace for one request, command or background task.
// Every entry logged under it shares the generated ProcessID.
func NewLogEvent(processType models.ProcessType, clientIP string) *models.LogEvent {
	return &models.LogEvent{
		ProcessID:   uuid.NewString(),
		ProcessType: processType,
		StartTime:   time.Now().UTC(),
		ClientIP:    clientIP,
	}
}

func WithLogEvent(ctx context.Context, logEvent *models.LogEvent) context.Context {
	return context.WithValue(ctx, logEventKey, logEvent)
}

// GetLogEvent returns the event stored in ctx, or a fresh internal event
// when cache code runs outside a request or command
func GetLogEvent(ctx context.Context) *models.LogEvent {
	if logEvent, ok := ctx.Value(logEventKey).(*models.LogEvent); ok && logEvent != nil {
		return logEvent
	}
	return NewInternalLogEvent()
}

func NewRequestLogEvent(clientIP string) *models.LogEvent {
	return NewLogEvent(models.ProcessTypeRequest, clientIP)
}

func NewInternalLogEvent() *models.LogEvent {
	return NewLogEvent(models.ProcessTypeInternal, "")
}

// NewCommandLogEvent traces a one-shot CLI command
func NewCommandLogEvent() *models.LogEvent {
	return NewLogEvent(models.ProcessTypeCommand, "")
}
