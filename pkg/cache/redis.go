package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "your-energy:session:"

// RedisStore is a Store backed by Redis. Entries live in a per-session
// namespace so one session never reads another's responses. They are written
// without expiry and removed by Clear when the session ends.
type RedisStore struct {
	redis     *redis.Client
	namespace string
	prefix    string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithNamespace fixes the session namespace instead of a random one.
func WithNamespace(namespace string) RedisOption {
	return func(s *RedisStore) {
		s.namespace = namespace
	}
}

// NewRedisStore creates a Redis-backed store with a fresh session namespace.
func NewRedisStore(redisClient *redis.Client, opts ...RedisOption) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	s := &RedisStore{redis: redisClient}
	for _, opt := range opts {
		opt(s)
	}
	if s.namespace == "" {
		s.namespace = uuid.NewString()
	}
	s.prefix = sessionPrefix + s.namespace + ":"
	return s
}

// Namespace returns the session namespace of the store.
func (s *RedisStore) Namespace() string {
	return s.namespace
}

// redisKey places key in the session namespace:
//
//	your-energy:session:<namespace>:<kind>:<filterOrCategory>:page=<n>:...
func (s *RedisStore) redisKey(key RequestKey) string {
	return s.prefix + strings.TrimPrefix(key.String(), "your-energy:")
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key RequestKey) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return data, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key RequestKey, body []byte) error {
	if body == nil {
		return fmt.Errorf("cache body cannot be nil")
	}

	if err := s.redis.Set(ctx, s.redisKey(key), body, 0).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key RequestKey) error {
	if err := s.redis.Del(ctx, s.redisKey(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every entry of the session namespace and returns how many
// were deleted.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	var keys []string
	iter := s.redis.Scan(ctx, 0, escapeGlob(s.prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return int(n), nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the Redis MATCH metacharacters in s.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
