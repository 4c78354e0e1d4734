// Package coordinator owns the request lifecycle of one UI resource.
//
// A Coordinator supersedes every earlier Load when a new one starts: the
// in-flight request is cancelled, the generation counter moves forward and
// only the outcome of the most recent Load is ever handed to the Presenter,
// whatever order the network answers in.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/your-energy-client/pkg/cache"
	"github.com/Sternrassler/your-energy-client/pkg/client"
)

// ErrSuperseded is the cancellation cause of a request replaced by a newer Load.
var ErrSuperseded = errors.New("superseded by a newer request")

// Request describes one load.
type Request[T any] struct {
	// Key identifies the response in the cache store.
	Key cache.RequestKey

	// Fetch performs the network call. It must honor ctx cancellation.
	Fetch func(ctx context.Context) (T, error)
}

// Outcome is a resolved load handed to the Presenter.
type Outcome[T any] struct {
	Resource   cache.Kind
	Generation uint64
	Key        cache.RequestKey
	Value      T
	// Err is a non-cancellation failure. Value is the zero value when set.
	Err error
	// Cached is true when Value came from the cache store.
	Cached bool
	LoadID string
}

// Presenter receives current outcomes. Calls are serialized per Coordinator.
// Present must not call Load on the same Coordinator.
type Presenter[T any] interface {
	Present(Outcome[T])
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc[T any] func(Outcome[T])

// Present implements Presenter.
func (f PresenterFunc[T]) Present(o Outcome[T]) { f(o) }

type flight struct {
	gen    uint64
	cancel context.CancelCauseFunc
}

// Coordinator serializes loads of one resource.
type Coordinator[T any] struct {
	resource  cache.Kind
	store     cache.Store
	presenter Presenter[T]
	logger    zerolog.Logger

	mu         sync.Mutex
	generation uint64
	inFlight   *flight

	// deliverMu is held across the generation check and Present so a
	// superseded outcome can never be rendered after a newer one.
	deliverMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a Coordinator for resource. store may be nil to disable caching.
func New[T any](resource cache.Kind, store cache.Store, presenter Presenter[T], logger zerolog.Logger) *Coordinator[T] {
	if presenter == nil {
		presenter = PresenterFunc[T](func(Outcome[T]) {})
	}
	return &Coordinator[T]{
		resource:  resource,
		store:     store,
		presenter: presenter,
		logger:    logger.With().Str("resource", string(resource)).Logger(),
	}
}

// Load starts a new load and returns its generation. It does not block on
// the network: a cache hit is presented before Load returns, a miss is
// fetched on a separate goroutine.
func (c *Coordinator[T]) Load(ctx context.Context, req Request[T]) uint64 {
	loadID := uuid.NewString()

	c.mu.Lock()
	if c.inFlight != nil {
		c.inFlight.cancel(ErrSuperseded)
		c.inFlight = nil
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	resource := string(c.resource)
	loadsTotal.WithLabelValues(resource).Inc()
	logger := c.logger.With().Str("load_id", loadID).Uint64("generation", gen).Str("key", req.Key.String()).Logger()

	if value, ok := c.cached(ctx, req.Key, logger); ok {
		logger.Debug().Msg("Cache hit")
		c.deliver(Outcome[T]{
			Resource:   c.resource,
			Generation: gen,
			Key:        req.Key,
			Value:      value,
			Cached:     true,
			LoadID:     loadID,
		}, sourceCache)
		return gen
	}

	fctx, cancel := context.WithCancelCause(ctx)
	f := &flight{gen: gen, cancel: cancel}

	c.mu.Lock()
	if c.generation != gen {
		// A concurrent Load overtook us during the cache lookup.
		c.mu.Unlock()
		cancel(ErrSuperseded)
		staleDiscards.WithLabelValues(resource).Inc()
		return gen
	}
	c.inFlight = f
	c.mu.Unlock()

	logger.Info().Msg("Loading")
	c.wg.Add(1)
	go c.run(fctx, f, req, loadID, logger)
	return gen
}

func (c *Coordinator[T]) run(ctx context.Context, f *flight, req Request[T], loadID string, logger zerolog.Logger) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		if c.inFlight == f {
			c.inFlight = nil
		}
		c.mu.Unlock()
		f.cancel(nil)
	}()

	resource := string(c.resource)
	value, err := req.Fetch(ctx)

	if err != nil && isCancellation(ctx, err) {
		cancellations.WithLabelValues(resource).Inc()
		logger.Debug().Err(err).Msg("Load cancelled")
		return
	}
	if !c.isCurrent(f.gen) {
		staleDiscards.WithLabelValues(resource).Inc()
		logger.Debug().Msg("Discarding stale result")
		return
	}

	outcome := Outcome[T]{
		Resource:   c.resource,
		Generation: f.gen,
		Key:        req.Key,
		LoadID:     loadID,
	}
	if err != nil {
		loadErrors.WithLabelValues(resource).Inc()
		logger.Error().Err(err).Int("status", client.StatusCode(err)).Msg("Load failed")
		outcome.Err = err
		c.deliver(outcome, sourceError)
		return
	}

	c.storeResult(ctx, req.Key, value, logger)
	outcome.Value = value
	c.deliver(outcome, sourceNetwork)
}

// deliver presents o if its generation is still current.
func (c *Coordinator[T]) deliver(o Outcome[T], source string) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	if !c.isCurrent(o.Generation) {
		staleDiscards.WithLabelValues(string(c.resource)).Inc()
		return
	}
	deliveries.WithLabelValues(string(c.resource), source).Inc()
	c.presenter.Present(o)
}

func (c *Coordinator[T]) cached(ctx context.Context, key cache.RequestKey, logger zerolog.Logger) (T, bool) {
	var value T
	if c.store == nil {
		return value, false
	}
	body, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Cache read failed")
		}
		return value, false
	}
	if err := json.Unmarshal(body, &value); err != nil {
		logger.Warn().Err(err).Msg("Ignoring undecodable cache entry")
		var zero T
		return zero, false
	}
	return value, true
}

func (c *Coordinator[T]) storeResult(ctx context.Context, key cache.RequestKey, value T, logger zerolog.Logger) {
	if c.store == nil {
		return
	}
	body, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot encode result for cache")
		return
	}
	// The fetch context is cancelled as soon as run returns; the write
	// must not depend on it.
	if err := c.store.Put(context.WithoutCancel(ctx), key, body); err != nil {
		logger.Warn().Err(err).Msg("Cache write failed")
	}
}

func (c *Coordinator[T]) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// Cancel aborts the in-flight request and invalidates every pending outcome.
// When Cancel returns, no outcome of this Coordinator is being presented.
// It must not be called from this Coordinator's Presenter.
func (c *Coordinator[T]) Cancel() {
	c.mu.Lock()
	if c.inFlight != nil {
		c.inFlight.cancel(ErrSuperseded)
		c.inFlight = nil
	}
	c.generation++
	c.mu.Unlock()

	// A delivery that passed the generation check before the bump finishes
	// under deliverMu.
	c.deliverMu.Lock()
	c.deliverMu.Unlock()
}

// Generation returns the current generation.
func (c *Coordinator[T]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Wait blocks until every fetch started so far has settled.
func (c *Coordinator[T]) Wait() {
	c.wg.Wait()
}

// isCancellation reports whether a fetch failure is the result of
// cancellation rather than a real error. Timeouts are real errors.
func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, ErrSuperseded) || client.IsCancelled(err) {
		return true
	}
	return errors.Is(ctx.Err(), context.Canceled)
}
