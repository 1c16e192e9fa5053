package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces harvest entries in a shared Redis.
const keyPrefix = "harvest:content:"

// Redis is a Cache backed by a Redis server, shared between instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// Get returns the cached value for key. Redis errors count as misses.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache: redis get failed", "error", err)
		}
		return "", false
	}
	return val, true
}

// Set stores value under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key, value string) {
	if err := r.client.Set(ctx, keyPrefix+key, value, r.ttl).Err(); err != nil {
		slog.Warn("cache: redis set failed", "error", err)
	}
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
