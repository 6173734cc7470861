package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"simplecache/internal/logger"
	"simplecache/internal/metrics"
	"simplecache/internal/models"
	"simplecache/internal/ratelimit"

	"github.com/gorilla/mux"
)

// maxLoggedBody caps how much of a request body ends up in the logs
const maxLoggedBody = 1000

// loggingMiddleware creates the request LogEvent and logs start and completion
func loggingMiddleware(loggerService logger.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// One LogEvent per request, keyed by the caller's IP
			clientIP := getClientIP(r)
			logEvent := logger.NewRequestLogEvent(clientIP)

			// Every downstream log line shares the event through the context
			ctx := logger.WithLogEvent(r.Context(), logEvent)
			r = r.WithContext(ctx)

			// Request details for the start entry
			requestMetadata := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"query":      r.URL.RawQuery,
				"user_agent": r.UserAgent(),
				"client_ip":  clientIP,
			}

			// Route variables such as {key}
			if vars := mux.Vars(r); len(vars) > 0 {
				requestMetadata["url_params"] = vars
			}

			// Body is only attached when the request carried one
			if body := readBodyForLog(r); body != "" {
				requestMetadata["body"] = body
			}

			loggerService.LogInfo(ctx, "http_request_start", "HTTP request received", requestMetadata)

			// Capture the status code written by the handler
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Hand off to the rest of the chain
			next.ServeHTTP(wrapped, r)
			metrics.RecordHTTPRequest(r.Method, wrapped.statusCode)

			// Duration is measured from the LogEvent start time
			loggerService.LogInfo(ctx, "http_request_complete", "HTTP request processed", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": wrapped.statusCode,
				"duration_ms": time.Since(logEvent.StartTime).Milliseconds(),
				"client_ip":   clientIP,
			})
		})
	}
}

// readBodyForLog drains the body, restores it for the handler and returns
// a truncated copy for logging
func readBodyForLog(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	// Drain the original body
	bodyBytes, _ := io.ReadAll(r.Body)
	r.Body.Close()

	// Handlers still need to decode it
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	// Large payloads are cut before they reach the logs
	if len(bodyBytes) > maxLoggedBody {
		return string(bodyBytes[:maxLoggedBody]) + "... (truncated)"
	}
	return string(bodyBytes)
}

// corsMiddleware adds CORS headers
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			// Preflight requests stop here
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(loggerService logger.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					loggerService.LogError(
						r.Context(),
						"panic_recovery",
						mux.Vars(r)["key"],
						"Panic recovered in HTTP handler",
						fmt.Errorf("panic: %v", err),
						models.LogSeverityHigh,
						map[string]interface{}{
							"panic":  err,
							"path":   r.URL.Path,
							"method": r.Method,
						},
					)

					// The request ID lets clients correlate the failure with the logs
					logEvent := logger.GetLogEvent(r.Context())

					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("X-Request-ID", logEvent.ProcessID)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error","message":"An unexpected error occurred"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitingMiddleware rejects requests the limiter does not admit.
// With a positive maxWait a request may queue that long for a token first.
// Expects the LogEvent to already be in context from the logging middleware.
func rateLimitingMiddleware(rateLimiter ratelimit.Service, loggerService logger.Service, maxWait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Client IP comes from the LogEvent set up by the logging middleware
			logEvent := logger.GetLogEvent(ctx)

			// Both limiter tiers must admit the request
			if !admit(ctx, rateLimiter, logEvent.ClientIP, maxWait) {
				metrics.RecordRateLimited()
				loggerService.LogError(ctx, logger.OpRateLimited, "", "Rate limit exceeded", models.ErrRateLimitExceeded, models.LogSeverityMedium, map[string]interface{}{
					"path":      r.URL.Path,
					"method":    r.Method,
					"waited_ms": maxWait.Milliseconds(),
				})

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Request-ID", logEvent.ProcessID)
				w.Header().Set("X-RateLimit-Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded","message":"Please try again later"}`))
				return
			}

			// Admitted; continue down the chain
			next.ServeHTTP(w, r)
		})
	}
}

// admit asks the limiter for a token, queueing up to maxWait when it is positive
func admit(ctx context.Context, rateLimiter ratelimit.Service, clientIP string, maxWait time.Duration) bool {
	if maxWait <= 0 {
		return rateLimiter.Allow(clientIP)
	}

	waitCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()
	return rateLimiter.Wait(waitCtx, clientIP) == nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Proxies put the original client first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	// Single-hop proxies set X-Real-IP instead
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Direct connection
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
