// Package cache provides ports.ResultCache implementations backed by Redis
// or process memory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"indicatorEngine/internal/ports"
)

// RedisConfig holds the connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

var _ ports.ResultCache = (*RedisCache)(nil)

// RedisCache implements ports.ResultCache using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w: %v", cfg.Addr, ports.ErrProviderUnavailable, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "indicator-engine"
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

// Get returns the cached value or ports.ErrNotFound.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cache key %s: %w", key, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

// Set stores value for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
