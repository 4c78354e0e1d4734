// Package storage provides durable local key/value storage for client state.
//
// Values are strings, typically JSON documents. Backends: an in-memory map,
// a JSON file on disk, a SQLite database and Redis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("storage key not found")

// Storage is a string key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Driver names a backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver Driver
	// Path is the file or database path for the file and sqlite drivers.
	Path string
	// Redis is required by the redis driver.
	Redis *redis.Client
}

// Open creates the backend named by opts.Driver. The caller closes the
// result with Close when it implements io.Closer.
func Open(opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(opts.Path)
	case DriverSQLite:
		return OpenSQLite(opts.Path)
	case DriverRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("redis client is required for redis storage")
		}
		return NewRedis(opts.Redis), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	return nil
}
