package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const clearScanCount = 500

// RedisCache implements Backend using Redis.
// Values are stored as JSON and decoded into generic Go values on fetch.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a new Redis-based cache. Every key is stored under
// prefix, and Clear only removes prefixed keys unless prefix is empty.
func NewRedisCache(redisURL, prefix string) (Backend, error) {
	return newRedisCache(redisURL, prefix)
}

// newRedisCache creates the concrete implementation
func newRedisCache(redisURL, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

// Store saves value as JSON; zero ttlSeconds persists the key
func (r *RedisCache) Store(ctx context.Context, key string, value interface{}, ttlSeconds int) (bool, error) {
	if ttlSeconds < 0 {
		if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
			return false, fmt.Errorf("redis set failed: %w", err)
		}
		return true, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}

	ttl := ttlDuration(ttlSeconds)
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}

	return true, nil
}

// Fetch retrieves and decodes the value stored under key
func (r *RedisCache) Fetch(ctx context.Context, key string) (interface{}, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return value, true, nil
}

// Exists reports whether key is present in Redis
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

// Remove deletes an entry from Redis
func (r *RedisCache) Remove(ctx context.Context, key string) (bool, error) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return false, fmt.Errorf("redis delete failed: %w", err)
	}
	return true, nil
}

// Clear removes every prefixed key, or flushes the database without a prefix
func (r *RedisCache) Clear(ctx context.Context) (bool, error) {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return false, fmt.Errorf("redis flush failed: %w", err)
		}
		return true, nil
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", clearScanCount).Result()
		if err != nil {
			return false, fmt.Errorf("redis scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return false, fmt.Errorf("redis delete failed: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return true, nil
		}
	}
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
