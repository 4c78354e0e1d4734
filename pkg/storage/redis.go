package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisPrefix separates local storage from request cache entries.
const redisPrefix = "localstorage:"

// Redis persists values as plain Redis strings without expiry.
type Redis struct {
	redis *redis.Client
}

// NewRedis creates a Redis-backed storage.
func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{redis: redisClient}
}

// Get implements Storage.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.redis.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

// Set implements Storage.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := r.redis.Set(ctx, redisPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Storage.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
