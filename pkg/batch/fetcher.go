// Package batch fetches many independent items in parallel.
//
// Failures are settled per item: a failed item is logged and dropped while
// the rest of the batch still returns. Only a batch in which every item
// failed is an error.
//
// Example usage:
//
//	fetcher := batch.NewFetcher(api.Exercise, batch.DefaultConfig())
//	exercises, err := fetcher.FetchAll(ctx, favoriteIDs)
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrAllFailed is returned when no item of a non-empty batch could be fetched.
var ErrAllFailed = errors.New("all batch items failed")

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per item fetch
	Timeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		Timeout:        10 * time.Second,
	}
}

// FetchFunc fetches a single item by id.
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

// Fetcher handles parallel fetching of multiple items
type Fetcher[T any] struct {
	fetch  FetchFunc[T]
	config Config
	logger zerolog.Logger
}

// NewFetcher creates a new batch fetcher
func NewFetcher[T any](fetch FetchFunc[T], config Config) *Fetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Fetcher[T]{
		fetch:  fetch,
		config: config,
		logger: log.Logger.With().Str("component", "batch").Logger(),
	}
}

// WithLogger returns a copy of the fetcher that logs to logger.
func (f *Fetcher[T]) WithLogger(logger zerolog.Logger) *Fetcher[T] {
	clone := *f
	clone.logger = logger
	return &clone
}

// FetchAll fetches every id and returns the successful items in input order.
// Cancelling ctx aborts the batch with the cancellation cause.
func (f *Fetcher[T]) FetchAll(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	start := time.Now()

	items := make([]T, len(ids))
	ok := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
			defer cancel()

			item, err := f.fetch(itemCtx, id)
			if err != nil {
				if ctx.Err() == nil {
					itemsFailed.Inc()
					f.logger.Warn().Err(err).Str("id", id).Msg("Item fetch failed")
				}
				return nil
			}
			items[i] = item
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		f.logger.Debug().Int("items", len(ids)).Msg("Batch cancelled")
		return nil, context.Cause(ctx)
	}

	results := make([]T, 0, len(ids))
	for i := range items {
		if ok[i] {
			results = append(results, items[i])
		}
	}
	itemsFetched.Add(float64(len(results)))

	f.logger.Info().
		Int("fetched", len(results)).
		Int("total", len(ids)).
		Dur("duration", time.Since(start)).
		Msg("Batch complete")

	if len(results) == 0 {
		return results, fmt.Errorf("%w (%d items)", ErrAllFailed, len(ids))
	}
	return results, nil
}
