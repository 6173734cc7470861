package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"simplecache/internal/models"

	"github.com/joho/godotenv"
)

// Supported CACHE_BACKEND values
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

// Supported LOG_SINK values
const (
	LogSinkConsole  = "console"
	LogSinkDatabase = "database"
)

type Config struct {
	Port                  string
	CacheBackend          string
	RedisURL              string
	RedisPrefix           string
	BoltPath              string
	BoltBucket            string
	MemoryCleanupInterval time.Duration
	GlobalRateLimitPerSec int
	PerIPRateLimitPerSec  int
	RateLimitWait         time.Duration
	MaxBatchSize          int
	DatabaseURL           string
	LogSink               string
	LogLevel              string
	LogEncoding           string
	ServerReadTimeout     time.Duration
	ServerWriteTimeout    time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists (optional)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		CacheBackend:          strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisPrefix:           getEnv("REDIS_PREFIX", "simplecache:"),
		BoltPath:              getEnv("BOLT_PATH", "simplecache.db"),
		BoltBucket:            getEnv("BOLT_BUCKET", "cache"),
		MemoryCleanupInterval: getDurationEnv("MEMORY_CLEANUP_INTERVAL", 5*time.Minute),
		GlobalRateLimitPerSec: getIntEnv("GLOBAL_RATE_LIMIT_PER_SEC", 100),
		PerIPRateLimitPerSec:  getIntEnv("PER_IP_RATE_LIMIT_PER_SEC", 10),
		RateLimitWait:         time.Duration(getIntEnv("RATE_LIMIT_WAIT_MS", 0)) * time.Millisecond,
		MaxBatchSize:          getIntEnv("MAX_BATCH_SIZE", 100),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		LogSink:               strings.ToLower(getEnv("LOG_SINK", "")),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogEncoding:           getEnv("LOG_ENCODING", "json"),
		ServerReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		ServerShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	// Without an explicit sink, a configured database wins
	if cfg.LogSink == "" {
		cfg.LogSink = LogSinkConsole
		if cfg.DatabaseURL != "" {
			cfg.LogSink = LogSinkDatabase
		}
	}

	return cfg
}

// Validate reports configuration combinations that cannot start
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendMemory, BackendRedis, BackendBolt:
	default:
		return fmt.Errorf("%w: %q", models.ErrUnsupportedBackend, c.CacheBackend)
	}

	switch c.LogSink {
	case LogSinkConsole:
	case LogSinkDatabase:
		if c.DatabaseURL == "" {
			return fmt.Errorf("LOG_SINK=%s requires DATABASE_URL", LogSinkDatabase)
		}
	default:
		return fmt.Errorf("unsupported log sink: %q", c.LogSink)
	}

	if c.RateLimitWait < 0 {
		return fmt.Errorf("RATE_LIMIT_WAIT_MS must not be negative, got %d", c.RateLimitWait.Milliseconds())
	}

	if c.MaxBatchSize < 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must not be negative, got %d", c.MaxBatchSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getDurationEnv reads a whole number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal) * time.Second
		}
	}
	return defaultValue
}
