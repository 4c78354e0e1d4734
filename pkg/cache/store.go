package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// Store maps request keys to response bodies. Entries have no TTL and no
// size bound; stored bodies are never mutated after Put.
type Store interface {
	// Get returns the body for key or ErrCacheMiss.
	Get(ctx context.Context, key RequestKey) ([]byte, error)

	// Put stores a copy of body under key.
	Put(ctx context.Context, key RequestKey, body []byte) error
}
