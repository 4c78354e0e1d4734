// Command energy is a terminal front-end for the your-energy exercise catalog.
//
// Usage:
//
//	energy [global flags] <command> [args]
//
// Commands: quote, filters, exercises, exercise, favorites, rate, subscribe,
// browse. Run "energy help" for details.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Sternrassler/your-energy-client/pkg/batch"
	"github.com/Sternrassler/your-energy-client/pkg/cache"
	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/config"
	"github.com/Sternrassler/your-energy-client/pkg/favorites"
	"github.com/Sternrassler/your-energy-client/pkg/logging"
	"github.com/Sternrassler/your-energy-client/pkg/quote"
	"github.com/Sternrassler/your-energy-client/pkg/reconciler"
	"github.com/Sternrassler/your-energy-client/pkg/session"
	"github.com/Sternrassler/your-energy-client/pkg/storage"
)

const usage = `Usage: energy [flags] <command> [args]

Commands:
  quote                              quote of the day
  filters [filter] [--page N]        category cards (Muscles, "Body parts", Equipment)
  exercises <filter> <category>      exercises of a category [--keyword K] [--page N]
  exercise <id>                      exercise details
  favorites list|show                favorite ids, or the favorites view
  favorites add|remove|toggle <id>   edit favorites
  rate <id> --rate N --email E --review R
  subscribe <email>                  newsletter subscription
  browse                             interactive session

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	flags := pflag.NewFlagSet("energy", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	bindFlags(flags, &cfg)
	verbose := flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *verbose {
		cfg.LogLevel = string(logging.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 || rest[0] == "help" {
		flags.Usage()
		if len(rest) == 0 {
			return 2
		}
		return 0
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: stderr,
	})

	a, err := newApp(ctx, cfg, stdin, stdout, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, a.health, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := a.dispatch(ctx, rest[0], rest[1:]); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// bindFlags layers command-line flags over the environment configuration.
func bindFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Catalog API base URL")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	flags.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "GET attempts on server or network failures")
	flags.IntVar(&cfg.FiltersLimit, "filters-limit", cfg.FiltersLimit, "Categories per page")
	flags.IntVar(&cfg.ExercisesLimit, "exercises-limit", cfg.ExercisesLimit, "Exercises per page")
	flags.StringVar(&cfg.Cache, "cache", cfg.Cache, "Request cache backend (memory, redis)")
	flags.StringVarP(&cfg.Storage, "storage", "s", cfg.Storage, "Local storage driver (memory, file, sqlite, redis)")
	flags.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "File or database path for file and sqlite storage")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for redis cache or storage")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error, off)")
	flags.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "Human-readable log output")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /health on this address")
}

// app wires the client stack for one invocation.
type app struct {
	cfg       config.Config
	api       *client.Client
	storage   storage.Storage
	cache     cache.Store
	redis     *redis.Client
	favorites *favorites.Store
	quotes    *quote.Service
	logger    zerolog.Logger

	in  io.Reader
	out io.Writer
}

func newApp(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, logger zerolog.Logger) (*app, error) {
	clientCfg := client.DefaultConfig(cfg.BaseURL, cfg.UserAgent)
	clientCfg.Timeout = cfg.Timeout
	clientCfg.Retry.MaxAttempts = cfg.MaxAttempts
	clientCfg.Retry.InitialBackoff = cfg.InitialBackoff

	api, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	a := &app{cfg: cfg, api: api, logger: logger, in: in, out: out}

	if cfg.Cache == config.CacheRedis || cfg.Storage == config.StorageRedis {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	}

	if cfg.Cache == config.CacheRedis {
		a.cache = cache.NewRedisStore(a.redis)
	} else {
		a.cache = cache.NewMemoryStore()
	}

	a.storage, err = storage.Open(storage.Options{
		Driver: storage.Driver(cfg.Storage),
		Path:   cfg.StoragePath,
		Redis:  a.redis,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a.favorites = favorites.New(a.storage, logger)
	a.quotes = quote.New(api, a.storage, logger)
	return a, nil
}

// newSession creates a session rendering as text to the app output.
func (a *app) newSession() *session.Session {
	presenter := reconciler.NewPresenter(reconciler.NewTextRenderer(a.out), a.logger)
	return session.New(a.api, a.favorites, a.cache, presenter, session.Config{
		FiltersLimit:   a.cfg.FiltersLimit,
		ExercisesLimit: a.cfg.ExercisesLimit,
		Batch: batch.Config{
			MaxConcurrency: a.cfg.FavoritesConcurrency,
			Timeout:        a.cfg.Timeout,
		},
	}, a.logger)
}

// health reports whether the backing services are reachable.
func (a *app) health(ctx context.Context) error {
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close drops the session's Redis cache entries and releases the storage and
// Redis handles.
func (a *app) Close() {
	if rs, ok := a.cache.(*cache.RedisStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		n, err := rs.Clear(ctx)
		cancel()
		if err != nil {
			a.logger.Warn().Err(err).Str("namespace", rs.Namespace()).Msg("Failed to clear session cache")
		} else {
			a.logger.Debug().Int("entries", n).Str("namespace", rs.Namespace()).Msg("Cleared session cache")
		}
	}
	if closer, ok := a.storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.api != nil {
		_ = a.api.Close()
	}
}
