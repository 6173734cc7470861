package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"simplecache/internal/cache/simpleCache"
	"simplecache/internal/logger"
	"simplecache/internal/models"

	"github.com/gorilla/mux"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Handler contains the HTTP handlers for the cache API
type Handler struct {
	cache        simpleCache.Service
	logger       logger.Service
	maxBatchSize int
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cache simpleCache.Service,
	logger logger.Service,
	maxBatchSize int,
) *Handler {
	return &Handler{
		cache:        cache,
		logger:       logger,
		maxBatchSize: maxBatchSize,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

const msgInvalidTTL = "ttl must be an integer number of seconds or a duration string"

// writeJSONResponse writes a JSON response with standard headers including X-Request-ID
func (h *Handler) writeJSONResponse(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) error {
	// The request ID is the ProcessID of the LogEvent the logging middleware created
	logEvent := logger.GetLogEvent(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", logEvent.ProcessID)
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

// GetValue handles GET /api/cache/{key}
func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	// ?default= is only used when present, so an empty string is a valid default
	var def interface{}
	if query := r.URL.Query(); query.Has("default") {
		def = query.Get("default")
	}

	value, err := h.cache.Get(ctx, key, def)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheGet, key, err)
		return
	}

	// Write the value using the shared response helper
	if err := h.writeJSONResponse(w, r, http.StatusOK, models.ValueResponse{
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, logger.OpCacheGet, key, "Failed to encode response", err, models.LogSeverityLow, nil)
		return
	}

	// Success is logged only once the response is encoded
	h.logger.LogSuccess(ctx, logger.OpCacheGet, key, "Cache read completed", nil)
}

// HasValue handles HEAD /api/cache/{key}
func (h *Handler) HasValue(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	// HEAD carries no body, so the answer lives in the status code
	w.Header().Set("X-Request-ID", logger.GetLogEvent(r.Context()).ProcessID)

	exists, err := h.cache.Has(r.Context(), key)
	if err != nil {
		if !models.IsCacheFailure(err) {
			h.logger.LogError(r.Context(), logger.OpCacheHas, key, "Cache request rejected", err, models.LogSeverityLow, nil)
		}
		w.WriteHeader(h.getStatusCodeForError(err))
		return
	}

	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Exists handles GET /api/cache/{key}/exists
func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	exists, err := h.cache.Has(ctx, key)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheHas, key, err)
		return
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, models.ExistsResponse{
		Key:       key,
		Exists:    exists,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, logger.OpCacheHas, key, "Failed to encode response", err, models.LogSeverityLow, nil)
	}
}

// SetValue handles PUT /api/cache/{key}
func (h *Handler) SetValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	// Parse request body
	var request models.SetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.LogError(ctx, logger.OpCacheSet, key, "Invalid request body", err, models.LogSeverityLow, nil)
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ttl, err := decodeTTL(request.TTL)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheSet, key, err)
		return
	}

	// Resolve the TTL once; the response reports the seconds handed to the cache
	now := time.Now().UTC()
	ttlSeconds := simpleCache.NormalizeTTL(ttl, now)
	if ttl != nil {
		ttl = simpleCache.Seconds(ttlSeconds)
	}

	ok, err := h.cache.Set(ctx, key, request.Value, ttl)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheSet, key, err)
		return
	}

	response := models.ResultResponse{
		Key:       key,
		Success:   ok,
		TTL:       ttlSeconds,
		Timestamp: now,
	}
	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpCacheSet, key, "Failed to encode response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, logger.OpCacheSet, key, "Cache write completed", map[string]interface{}{
		"success":     ok,
		"ttl_seconds": response.TTL,
	})
}

// DeleteValue handles DELETE /api/cache/{key}
func (h *Handler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	ok, err := h.cache.Delete(ctx, key)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheDelete, key, err)
		return
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, models.ResultResponse{
		Key:       key,
		Success:   ok,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, logger.OpCacheDelete, key, "Failed to encode response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, logger.OpCacheDelete, key, "Cache delete completed", nil)
}

// Clear handles DELETE /api/cache
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ok, err := h.cache.Clear(ctx)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheClear, "", err)
		return
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, models.ResultResponse{
		Success:   ok,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, logger.OpCacheClear, "", "Failed to encode response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, logger.OpCacheClear, "", "Cache cleared", nil)
}

// BatchGet handles POST /api/cache/batch/get
func (h *Handler) BatchGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var request models.BatchGetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.LogError(ctx, logger.OpCacheGetMultiple, "", "Invalid request body", err, models.LogSeverityLow, nil)
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Validate request
	keys, err := decodeKeys(request.Keys)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheGetMultiple, "", err)
		return
	}
	if !h.checkBatchSize(w, r, len(keys)) {
		return
	}

	// Backend failures still return values, with the failed keys at the default
	values, err := h.cache.GetMultiple(ctx, keys, request.Default)
	if err != nil && !models.IsCacheFailure(err) {
		h.writeCacheError(w, r, logger.OpCacheGetMultiple, "", err)
		return
	}

	// Status code reflects how many keys failed
	errs := errorMessages(err)
	statusCode := h.getBatchStatusCode(len(keys), len(errs))
	if err := h.writeJSONResponse(w, r, statusCode, models.BatchValuesResponse{
		Values:    values,
		Errors:    errs,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, logger.OpCacheGetMultiple, "", "Failed to encode batch response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, logger.OpCacheGetMultiple, "", fmt.Sprintf("Completed batch read: %d keys, %d failed", len(keys), len(errs)), map[string]interface{}{
		"total":  len(keys),
		"failed": len(errs),
	})
}

// BatchSet handles POST /api/cache/batch/set
func (h *Handler) BatchSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var request models.BatchSetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.LogError(ctx, logger.OpCacheSetMultiple, "", "Invalid request body", err, models.LogSeverityLow, nil)
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Validate request
	values, err := decodeValues(request.Values)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheSetMultiple, "", err)
		return
	}
	if !h.checkBatchSize(w, r, values.Len()) {
		return
	}

	ttl, err := decodeTTL(request.TTL)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheSetMultiple, "", err)
		return
	}

	ok, err := h.cache.SetMultiple(ctx, values, ttl)
	h.writeBatchResult(w, r, logger.OpCacheSetMultiple, values.Len(), ok, err)
}

// BatchDelete handles POST /api/cache/batch/delete
func (h *Handler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var request models.BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.LogError(ctx, logger.OpCacheDeleteMultiple, "", "Invalid request body", err, models.LogSeverityLow, nil)
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Validate request
	keys, err := decodeKeys(request.Keys)
	if err != nil {
		h.writeCacheError(w, r, logger.OpCacheDeleteMultiple, "", err)
		return
	}
	if !h.checkBatchSize(w, r, len(keys)) {
		return
	}

	ok, err := h.cache.DeleteMultiple(ctx, keys)
	h.writeBatchResult(w, r, logger.OpCacheDeleteMultiple, len(keys), ok, err)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}

	if err := h.writeJSONResponse(w, r, http.StatusOK, response); err != nil {
		h.logger.LogError(ctx, logger.OpHealthCheck, "", "Failed to encode health response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogInfo(ctx, logger.OpHealthCheck, "Health check performed successfully", nil)
}

// writeBatchResult reports the aggregate outcome of a batch write or delete
func (h *Handler) writeBatchResult(w http.ResponseWriter, r *http.Request, op string, total int, ok bool, err error) {
	ctx := r.Context()

	if err != nil && !models.IsCacheFailure(err) {
		h.writeCacheError(w, r, op, "", err)
		return
	}

	errs := errorMessages(err)
	statusCode := h.getBatchStatusCode(total, len(errs))
	if err := h.writeJSONResponse(w, r, statusCode, models.BatchResultResponse{
		Success:   ok,
		Total:     total,
		Errors:    errs,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.logger.LogError(ctx, op, "", "Failed to encode batch response", err, models.LogSeverityLow, nil)
		return
	}

	h.logger.LogSuccess(ctx, op, "", fmt.Sprintf("Completed batch: %d keys, %d failed", total, len(errs)), map[string]interface{}{
		"total":   total,
		"failed":  len(errs),
		"success": ok,
	})
}

// checkBatchSize rejects batches larger than maxBatchSize
func (h *Handler) checkBatchSize(w http.ResponseWriter, r *http.Request, size int) bool {
	if h.maxBatchSize > 0 && size > h.maxBatchSize {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "too many keys", fmt.Sprintf("Maximum %d keys per batch", h.maxBatchSize))
		return false
	}
	return true
}

// writeCacheError maps a cache error to its status code and writes it
func (h *Handler) writeCacheError(w http.ResponseWriter, r *http.Request, op, key string, err error) {
	statusCode := h.getStatusCodeForError(err)

	// Backend failures are already logged by the cache facade
	if !models.IsCacheFailure(err) {
		h.logger.LogError(r.Context(), op, key, "Cache request rejected", err, models.LogSeverityLow, nil)
	}

	errorLabel := "cache failure"
	if models.IsInvalidArgument(err) {
		errorLabel = "invalid argument"
	}
	h.writeErrorResponse(w, r, statusCode, errorLabel, err.Error())
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, error, message string) {
	response := ErrorResponse{
		Error:     error,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	// Headers are already sent if encoding fails; all that is left is to log it
	if err := h.writeJSONResponse(w, r, statusCode, response); err != nil {
		h.logger.LogError(r.Context(), "response_encoding", "", "Failed to encode error response", err, models.LogSeverityLow, nil)
	}
}

// getStatusCodeForError determines the appropriate HTTP status code for an error
func (h *Handler) getStatusCodeForError(err error) int {
	switch {
	case models.IsInvalidArgument(err):
		return http.StatusBadRequest
	case models.IsCacheFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// getBatchStatusCode determines the status code for batch responses
func (h *Handler) getBatchStatusCode(total, failed int) int {
	if failed == 0 {
		// Every key succeeded
		return http.StatusOK
	} else if failed >= total {
		// Nothing succeeded
		return http.StatusBadGateway
	}
	// Some keys failed
	return http.StatusMultiStatus
}

// decodeTTL accepts a JSON number of seconds or a textual TTL
func decodeTTL(raw json.RawMessage) (simpleCache.TTL, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var seconds int
	if err := json.Unmarshal(trimmed, &seconds); err == nil {
		return simpleCache.Seconds(seconds), nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return simpleCache.ParseTTL(text)
	}

	return nil, models.NewInvalidArgumentError("parse_ttl", "", msgInvalidTTL)
}

// decodeKeys validates a raw JSON key list
func decodeKeys(raw json.RawMessage) ([]string, error) {
	var keys interface{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &keys); err != nil {
			return nil, models.NewInvalidArgumentError(logger.OpValidateKey, "", err.Error())
		}
	}
	return simpleCache.ValidateKeys(keys)
}

// decodeValues reads a JSON object into an ordered map, keeping the
// order the pairs were sent in
func decodeValues(raw json.RawMessage) (*orderedmap.OrderedMap[string, interface{}], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return simpleCache.ValuesFromAny(nil)
	}

	values := orderedmap.New[string, interface{}]()
	if err := values.UnmarshalJSON(trimmed); err != nil {
		return nil, models.NewInvalidArgumentError(logger.OpCacheSetMultiple, "", err.Error())
	}
	return simpleCache.ValuesFromAny(values)
}

// errorMessages flattens a joined error into one message per failure
func errorMessages(err error) []string {
	if err == nil {
		return nil
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		errs := joined.Unwrap()
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			messages = append(messages, e.Error())
		}
		return messages
	}
	return []string{err.Error()}
}
