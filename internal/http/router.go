package http

import (
	"context"
	"net/http"
	"time"

	"simplecache/internal/logger"
	"simplecache/internal/metrics"
	"simplecache/internal/ratelimit"

	"github.com/gorilla/mux"
)

// Server represents the HTTP server with all dependencies
type Server struct {
	handler *Handler
	logger  logger.Service
	server  *http.Server
}

// ServerOption tunes optional server behavior
type ServerOption func(*serverOptions)

type serverOptions struct {
	rateLimitWait time.Duration
}

// WithRateLimitWait lets a request queue up to d for a rate limit token
// before it is rejected
func WithRateLimitWait(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.rateLimitWait = d
	}
}

// NewServer creates a new HTTP server
func NewServer(
	addr string,
	handler *Handler,
	logger logger.Service,
	rateLimiter ratelimit.Service,
	readTimeout, writeTimeout time.Duration,
	opts ...ServerOption,
) *Server {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	router := mux.NewRouter()

	srv := &Server{
		handler: handler,
		logger:  logger,
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}

	// Order matters: logging -> rate limiting -> cors -> recovery
	router.Use(loggingMiddleware(logger))
	router.Use(rateLimitingMiddleware(rateLimiter, logger, options.rateLimitWait))
	router.Use(corsMiddleware())
	router.Use(recoveryMiddleware(logger))

	srv.registerRoutes(router)

	return srv
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api/cache").Subrouter()

	// Batch routes first so "batch" is never read as a key
	api.HandleFunc("/batch/get", s.handler.BatchGet).Methods("POST", "OPTIONS")
	api.HandleFunc("/batch/set", s.handler.BatchSet).Methods("POST", "OPTIONS")
	api.HandleFunc("/batch/delete", s.handler.BatchDelete).Methods("POST", "OPTIONS")

	api.HandleFunc("", s.handler.Clear).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/{key}/exists", s.handler.Exists).Methods("GET")
	api.HandleFunc("/{key}", s.handler.GetValue).Methods("GET")
	api.HandleFunc("/{key}", s.handler.HasValue).Methods("HEAD")
	api.HandleFunc("/{key}", s.handler.SetValue).Methods("PUT", "OPTIONS")
	api.HandleFunc("/{key}", s.handler.DeleteValue).Methods("DELETE")

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Simple Cache API","version":"1.0.0","endpoints":["/health","/metrics","/api/cache/{key}","/api/cache/{key}/exists","/api/cache/batch/get","/api/cache/batch/set","/api/cache/batch/delete"]}`))
	}).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.LogInfo(context.Background(), logger.OpServerStart, "Starting HTTP server", map[string]interface{}{
		"addr": s.server.Addr,
	})

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.LogInfo(ctx, logger.OpServerShutdown, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}
