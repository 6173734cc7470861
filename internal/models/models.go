package models

import (
	"encoding/json"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SetRequest is the body of PUT /api/cache/{key}
type SetRequest struct {
	Value interface{}     `json:"value"`
	TTL   json.RawMessage `json:"ttl,omitempty"`
}

// BatchGetRequest is the body of POST /api/cache/batch/get.
// Keys stay raw so a non-list payload can be rejected as an invalid argument.
type BatchGetRequest struct {
	Keys    json.RawMessage `json:"keys"`
	Default interface{}     `json:"default,omitempty"`
}

// BatchSetRequest is the body of POST /api/cache/batch/set
type BatchSetRequest struct {
	Values json.RawMessage `json:"values"`
	TTL    json.RawMessage `json:"ttl,omitempty"`
}

// BatchDeleteRequest is the body of POST /api/cache/batch/delete
type BatchDeleteRequest struct {
	Keys json.RawMessage `json:"keys"`
}

// ValueResponse is returned by single-key reads
type ValueResponse struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExistsResponse is returned by GET /api/cache/{key}/exists
type ExistsResponse struct {
	Key       string    `json:"key"`
	Exists    bool      `json:"exists"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultResponse is returned by writes, deletes and clear
type ResultResponse struct {
	Key       string    `json:"key,omitempty"`
	Success   bool      `json:"success"`
	TTL       int       `json:"ttl_seconds,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchValuesResponse is returned by POST /api/cache/batch/get
type BatchValuesResponse struct {
	Values    *orderedmap.OrderedMap[string, interface{}] `json:"values"`
	Errors    []string                                    `json:"errors,omitempty"`
	Timestamp time.Time                                   `json:"timestamp"`
}

// BatchResultResponse is returned by batch writes and deletes
type BatchResultResponse struct {
	Success   bool      `json:"success"`
	Total     int       `json:"total"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LogSeverity represents the severity level of a log entry
type LogSeverity string

const (
	LogSeverityLow    LogSeverity = "low"
	LogSeverityMedium LogSeverity = "medium"
	LogSeverityHigh   LogSeverity = "high"
)

// ProcessType represents the type of process that created the log
type ProcessType string

const (
	ProcessTypeRequest  ProcessType = "request"
	ProcessTypeInternal ProcessType = "internal"
	ProcessTypeCommand  ProcessType = "command"
)

// LogEvent represents a process-specific logging context
type LogEvent struct {
	ProcessID   string      `json:"process_id"`
	ProcessType ProcessType `json:"process_type"`
	StartTime   time.Time   `json:"start_time"`
	ClientIP    string      `json:"client_ip,omitempty"`
}

// LogEntry represents a structured log entry
type LogEntry struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Severity    LogSeverity            `json:"severity,omitempty"`
	Message     string                 `json:"message"`
	Operation   string                 `json:"operation"`
	CacheKey    string                 `json:"cache_key,omitempty"`
	ProcessID   string                 `json:"process_id"`
	ProcessType ProcessType            `json:"process_type"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
