// Package config loads the catalog client configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers for durable local storage.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Cache backends for the request cache.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds every tunable of the client and the CLI.
//
// Pagination limits are configuration rather than constants: the catalog
// front-end has used 6, 9 and 12 at different times.
type Config struct {
	BaseURL   string        `env:"YOUR_ENERGY_BASE_URL"   envDefault:"https://your-energy.b.goit.study/api"`
	UserAgent string        `env:"YOUR_ENERGY_USER_AGENT" envDefault:"your-energy-client/0.1.0"`
	Timeout   time.Duration `env:"YOUR_ENERGY_TIMEOUT"    envDefault:"10s"`

	// MaxAttempts bounds GET attempts on server/network failures (1 = no retry).
	MaxAttempts    int           `env:"YOUR_ENERGY_MAX_ATTEMPTS"    envDefault:"1"`
	InitialBackoff time.Duration `env:"YOUR_ENERGY_INITIAL_BACKOFF" envDefault:"500ms"`

	FiltersLimit         int `env:"YOUR_ENERGY_FILTERS_LIMIT"         envDefault:"12"`
	ExercisesLimit       int `env:"YOUR_ENERGY_EXERCISES_LIMIT"       envDefault:"10"`
	FavoritesConcurrency int `env:"YOUR_ENERGY_FAVORITES_CONCURRENCY" envDefault:"5"`

	Cache       string `env:"YOUR_ENERGY_CACHE"        envDefault:"memory"`
	Storage     string `env:"YOUR_ENERGY_STORAGE"      envDefault:"file"`
	StoragePath string `env:"YOUR_ENERGY_STORAGE_PATH" envDefault:"your-energy.json"`
	RedisAddr   string `env:"YOUR_ENERGY_REDIS_ADDR"   envDefault:"localhost:6379"`
	RedisDB     int    `env:"YOUR_ENERGY_REDIS_DB"     envDefault:"0"`

	LogLevel    string `env:"YOUR_ENERGY_LOG_LEVEL"    envDefault:"warn"`
	LogPretty   bool   `env:"YOUR_ENERGY_LOG_PRETTY"   envDefault:"true"`
	MetricsAddr string `env:"YOUR_ENERGY_METRICS_ADDR"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by an empty environment.
func Default() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url must be absolute (got %q)", c.BaseURL)
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user-agent is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", c.MaxAttempts)
	}
	if c.FiltersLimit < 1 || c.ExercisesLimit < 1 {
		return fmt.Errorf("page limits must be >= 1 (got filters=%d exercises=%d)", c.FiltersLimit, c.ExercisesLimit)
	}
	if c.FavoritesConcurrency < 1 {
		return fmt.Errorf("favorites_concurrency must be >= 1 (got %d)", c.FavoritesConcurrency)
	}
	switch c.Cache {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}
	switch c.Storage {
	case StorageMemory, StorageFile, StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage)
	}
	if (c.Storage == StorageFile || c.Storage == StorageSQLite) && strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage path is required for %s storage", c.Storage)
	}
	return nil
}
