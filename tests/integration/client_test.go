//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/your-energy-client/internal/testutil"
	"github.com/Sternrassler/your-energy-client/pkg/cache"
	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/favorites"
	"github.com/Sternrassler/your-energy-client/pkg/pagination"
	"github.com/Sternrassler/your-energy-client/pkg/reconciler"
	"github.com/Sternrassler/your-energy-client/pkg/session"
	"github.com/Sternrassler/your-energy-client/pkg/storage"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// countingRenderer counts card renders and remembers the last error notification.
type countingRenderer struct {
	cards     int
	lastError string
}

func (r *countingRenderer) Breadcrumbs([]string)                     {}
func (r *countingRenderer) Cards(reconciler.View, []reconciler.Card) { r.cards++ }
func (r *countingRenderer) EmptyState(reconciler.View, string)       {}
func (r *countingRenderer) ErrorState(reconciler.View, string)       {}
func (r *countingRenderer) Pagination(*pagination.Controls)          {}
func (r *countingRenderer) ClearPagination()                         {}

func (r *countingRenderer) Notify(level reconciler.Level, message string) {
	if level == reconciler.LevelError {
		r.lastError = message
	}
}

func newSession(t *testing.T, mock *testutil.MockCatalog, store cache.Store, local storage.Storage, renderer reconciler.Renderer, attempts int) *session.Session {
	t.Helper()
	cfg := client.DefaultConfig(mock.URL(), "your-energy-integration/1.0")
	cfg.Retry.MaxAttempts = attempts
	cfg.Retry.InitialBackoff = 10 * time.Millisecond
	api, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = api.Close() })

	logger := zerolog.Nop()
	presenter := reconciler.NewPresenter(renderer, logger)
	return session.New(api, favorites.New(local, logger), store, presenter, session.DefaultConfig(), logger)
}

// TestFullRequestFlow covers Redis cache miss, cache write and cache hit.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddExercises(testutil.Exercises("abs", "waist", 3)...)

	store := cache.NewRedisStore(redisClient)
	renderer := &countingRenderer{}
	s := newSession(t, mock, store, storage.NewRedis(redisClient), renderer, 1)
	ctx := context.Background()

	// Request 1: cache miss, network, cache write
	require.NoError(t, s.Open(ctx, session.State{Filter: client.FilterMuscles, Category: "abs"}))
	s.Wait()
	assert.Equal(t, 1, mock.RouteCount(testutil.RouteExercises))
	assert.Equal(t, 1, renderer.cards)

	q, err := client.ExerciseQueryFor(client.FilterMuscles, "abs", "", 1, 10)
	require.NoError(t, err)
	body, err := store.Get(ctx, cache.KeyFromParams(cache.KindExercises, q.Params()))
	require.NoError(t, err)
	assert.Contains(t, string(body), "abs-1")

	// Request 2: served from Redis without touching the API
	s2 := newSession(t, mock, store, storage.NewRedis(redisClient), renderer, 1)
	require.NoError(t, s2.Open(ctx, session.State{Filter: client.FilterMuscles, Category: "abs"}))
	s2.Wait()
	assert.Equal(t, 1, mock.RouteCount(testutil.RouteExercises))
	assert.Equal(t, 2, renderer.cards)
}

// TestServerErrorNotCached verifies failures reach the view and are never stored.
func TestServerErrorNotCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetResponse(testutil.RouteFilters, testutil.NewServerErrorResponse())

	store := cache.NewRedisStore(redisClient)
	renderer := &countingRenderer{}
	s := newSession(t, mock, store, storage.NewMemory(), renderer, 1)
	ctx := context.Background()

	s.Start(ctx)
	s.Wait()
	assert.Equal(t, "Internal server error", renderer.lastError)

	q := client.FilterQuery{Filter: client.FilterMuscles, Page: 1, Limit: 12}
	_, err := store.Get(ctx, cache.KeyFromParams(cache.KindCategories, q.Params()))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

// TestRetry5xxErrors verifies GETs are retried on server errors when enabled.
func TestRetry5xxErrors(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddFilters(client.Filter{Name: "abs", Filter: client.FilterMuscles})

	failures := 2
	mock.SetHandler(testutil.RouteFilters, func(w http.ResponseWriter, r *http.Request) {
		if failures > 0 {
			failures--
			testutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "busy"})
			return
		}
		testutil.WriteJSON(w, http.StatusOK, client.FilterPage{TotalPages: 1, Results: []client.Filter{{Name: "abs", Filter: client.FilterMuscles}}})
	})

	renderer := &countingRenderer{}
	s := newSession(t, mock, cache.NewMemoryStore(), storage.NewMemory(), renderer, 3)
	s.Start(context.Background())
	s.Wait()

	assert.Equal(t, 3, mock.RouteCount(testutil.RouteFilters))
	assert.Equal(t, 1, renderer.cards)
	assert.Empty(t, renderer.lastError)
}

// TestNoRetry4xxErrors verifies client errors are not retried.
func TestNoRetry4xxErrors(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetResponse(testutil.RouteFilters, testutil.NewNotFoundResponse())

	renderer := &countingRenderer{}
	s := newSession(t, mock, cache.NewMemoryStore(), storage.NewMemory(), renderer, 3)
	s.Start(context.Background())
	s.Wait()

	assert.Equal(t, 1, mock.RouteCount(testutil.RouteFilters))
	assert.Equal(t, "Not found", renderer.lastError)
}

// TestFavoritesRedisMigration verifies legacy favorites in Redis are migrated.
func TestFavoritesRedisMigration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	local := storage.NewRedis(redisClient)
	require.NoError(t, local.Set(ctx, favorites.LegacyKey, `["abs-2","abs-1"]`))

	store := favorites.New(local, zerolog.Nop())
	assert.Equal(t, []string{"abs-1", "abs-2"}, store.List(ctx))

	_, err := local.Get(ctx, favorites.LegacyKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A fresh store sees the migrated set
	assert.True(t, favorites.New(local, zerolog.Nop()).Has(ctx, "abs-2"))
}

// TestMetricsIncremented verifies coordinator and request metrics are exported.
func TestMetricsIncremented(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddFilters(client.Filter{Name: "abs", Filter: client.FilterMuscles})

	s := newSession(t, mock, cache.NewMemoryStore(), storage.NewMemory(), &countingRenderer{}, 1)
	s.Start(context.Background())
	s.Wait()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"your_energy_requests_total",
		"your_energy_coordinator_loads_total",
		"your_energy_coordinator_deliveries_total",
	} {
		assert.True(t, names[want], "metric %s not exported", want)
	}
}

// TestCacheScopedToSession verifies a new session never reuses another
// session's cached responses and that Clear removes them.
func TestCacheScopedToSession(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddExercises(testutil.Exercises("abs", "waist", 2)...)
	ctx := context.Background()
	state := session.State{Filter: client.FilterMuscles, Category: "abs"}

	first := cache.NewRedisStore(redisClient)
	s1 := newSession(t, mock, first, storage.NewMemory(), &countingRenderer{}, 1)
	require.NoError(t, s1.Open(ctx, state))
	s1.Wait()

	second := cache.NewRedisStore(redisClient)
	s2 := newSession(t, mock, second, storage.NewMemory(), &countingRenderer{}, 1)
	require.NoError(t, s2.Open(ctx, state))
	s2.Wait()
	assert.Equal(t, 2, mock.RouteCount(testutil.RouteExercises), "each session fetches its own data")

	n, err := first.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, err := redisClient.Keys(ctx, "your-energy:session:"+first.Namespace()+":*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
