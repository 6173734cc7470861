package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"simplecache/internal/cache"
	"simplecache/internal/cache/simpleCache"
	"simplecache/internal/config"
	"simplecache/internal/http"
	"simplecache/internal/logger"
	"simplecache/internal/metrics"
	"simplecache/internal/models"
	"simplecache/internal/ratelimit"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simplecache",
		Short:         "Key-validated cache over memory, Redis or bolt storage",
		Long:          "simplecache validates keys, normalizes TTLs and stores values in the backend selected by CACHE_BACKEND.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(getCommand())
	rootCmd.AddCommand(setCommand())
	rootCmd.AddCommand(hasCommand())
	rootCmd.AddCommand(deleteCommand())
	rootCmd.AddCommand(clearCommand())

	return rootCmd
}

// app holds the components every command shares
type app struct {
	cfg     *config.Config
	logger  logger.Service
	backend cache.Backend
	cache   simpleCache.Service
}

// bootstrap loads configuration and wires the logger, backend and cache facade
func bootstrap(ctx context.Context) (*app, error) {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger first so backend failures can be reported
	a := &app{cfg: cfg}
	if err := a.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize storage backend
	backend, err := initializeBackend(cfg)
	if err != nil {
		a.logger.LogError(ctx, logger.OpBackendInit, "", "Failed to initialize cache backend", err, models.LogSeverityHigh, map[string]interface{}{
			"backend": cfg.CacheBackend,
		})
		a.Close()
		return nil, fmt.Errorf("failed to initialize cache backend: %w", err)
	}

	// Initialize cache facade
	a.backend = backend
	a.cache = simpleCache.New(backend, a.logger)

	a.logger.LogInfo(ctx, logger.OpBackendInit, "Cache backend ready", map[string]interface{}{
		"backend":   cfg.CacheBackend,
		"log_sink":  cfg.LogSink,
		"max_batch": cfg.MaxBatchSize,
	})

	return a, nil
}

func (a *app) initializeLogger() error {
	// Database sink writes log rows to PostgreSQL
	if a.cfg.LogSink == config.LogSinkDatabase {
		db, err := logger.NewPostgresConnection(a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.logger = logger.NewDatabaseLogger(db)
		return nil
	}

	consoleLogger, err := logger.NewConsoleLogger(a.cfg.LogLevel, a.cfg.LogEncoding)
	if err != nil {
		return err
	}
	a.logger = consoleLogger
	return nil
}

// Close releases the backend, then flushes the logger
func (a *app) Close() {
	if closer, ok := a.backend.(cache.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("Failed to close cache backend: %v", err)
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func initializeBackend(cfg *config.Config) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		return cache.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix)
	case config.BackendBolt:
		return cache.NewBoltCache(cfg.BoltPath, cfg.BoltBucket)
	case config.BackendMemory:
		return cache.NewMemoryCache(cache.WithCleanupInterval(cfg.MemoryCleanupInterval)), nil
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedBackend, cfg.CacheBackend)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cache HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startupCtx := logger.WithLogEvent(cmd.Context(), logger.NewInternalLogEvent())

			a, err := bootstrap(startupCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(startupCtx, a)
		},
	}
}

func serve(startupCtx context.Context, a *app) error {
	cfg := a.cfg

	a.logger.LogInfo(startupCtx, logger.OpServerStart, "Starting Simple Cache API", map[string]interface{}{
		"version": version,
		"config": map[string]interface{}{
			"port":           cfg.Port,
			"cache_backend":  cfg.CacheBackend,
			"max_batch_size": cfg.MaxBatchSize,
			"rate_limit_ms":  cfg.RateLimitWait.Milliseconds(),
		},
	})

	// Initialize rate limiter; burst equals the per-second rate
	rateLimiter := ratelimit.NewTwoTierRateLimiter(
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
	)
	defer rateLimiter.Close()

	// Initialize HTTP handler over the instrumented cache
	handler := http.NewHandler(metrics.InstrumentCache(a.cache), a.logger, cfg.MaxBatchSize)

	// Initialize server
	addr := ":" + cfg.Port
	server := http.NewServer(
		addr,
		handler,
		a.logger,
		rateLimiter,
		cfg.ServerReadTimeout,
		cfg.ServerWriteTimeout,
		http.WithRateLimitWait(cfg.RateLimitWait),
	)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			a.logger.LogError(startupCtx, logger.OpServerStart, "", "Server failed to start", err, models.LogSeverityHigh, map[string]interface{}{"addr": addr})
			serverErr <- err
		}
	}()

	fmt.Printf("🚀 Simple Cache API server started on %s (%s backend)\n", addr, cfg.CacheBackend)
	fmt.Println("📋 Available endpoints:")
	fmt.Println("  GET    /health                   - Health check")
	fmt.Println("  GET    /metrics                  - Prometheus metrics")
	fmt.Println("  GET    /api/cache/{key}          - Read a value (?default=)")
	fmt.Println("  HEAD   /api/cache/{key}          - Check presence")
	fmt.Println("  GET    /api/cache/{key}/exists   - Check presence (JSON)")
	fmt.Println("  PUT    /api/cache/{key}          - Store a value")
	fmt.Println("  DELETE /api/cache/{key}          - Remove a value")
	fmt.Println("  DELETE /api/cache                - Clear the cache")
	fmt.Println("  POST   /api/cache/batch/get      - Read many values")
	fmt.Println("  POST   /api/cache/batch/set      - Store many values")
	fmt.Println("  POST   /api/cache/batch/delete   - Remove many values")

	// Wait for an interrupt or a failed start
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	fmt.Println("\n🛑 Shutting down server...")

	// In-flight requests get ServerShutdownTimeout to finish
	ctx, cancel := context.WithTimeout(startupCtx, cfg.ServerShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		a.logger.LogError(ctx, logger.OpServerShutdown, "", "Server shutdown error", err, models.LogSeverityMedium, nil)
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.logger.LogInfo(ctx, logger.OpServerShutdown, "Server shutdown completed successfully", nil)
	fmt.Println("✅ Server shutdown completed")
	return nil
}
