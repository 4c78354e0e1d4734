//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() {
		client.Close()
		_ = container.Terminate(ctx)
	})
	return client
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	store := NewRedisStore(setupRedis(t))
	ctx := context.Background()
	key := RequestKey{Kind: KindExercises, FilterOrCategory: "bodypart=Arms", Page: 1, Limit: 10}

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Put(ctx, key, []byte(`{"totalPages":1,"results":[]}`)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalPages":1,"results":[]}`, string(got))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisStore_NoExpiry(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()
	key := RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12}

	require.NoError(t, store.Put(ctx, key, []byte("{}")))

	ttl, err := client.TTL(ctx, store.redisKey(key)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), int64(ttl), "entries must not expire")
}

func TestRedisStore_NilBody(t *testing.T) {
	store := NewRedisStore(setupRedis(t))
	err := store.Put(context.Background(), RequestKey{Kind: KindCategories}, nil)
	assert.Error(t, err)
}

func TestRedisStore_SessionsDoNotShareEntries(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	key := RequestKey{Kind: KindExercises, FilterOrCategory: "bodypart=Arms", Page: 1, Limit: 10}

	first := NewRedisStore(client)
	second := NewRedisStore(client)

	require.NoError(t, first.Put(ctx, key, []byte(`{"totalPages":1}`)))
	_, err := second.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss, "a new session must not see another session's entries")

	require.NoError(t, second.Put(ctx, key, []byte(`{"totalPages":2}`)))
	got, err := first.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalPages":1}`, string(got))
}

func TestRedisStore_Clear(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	store := NewRedisStore(client)
	other := NewRedisStore(client)
	for page := 1; page <= 3; page++ {
		key := RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: page, Limit: 12}
		require.NoError(t, store.Put(ctx, key, []byte("{}")))
		require.NoError(t, other.Put(ctx, key, []byte("{}")))
	}

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = store.Get(ctx, RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12})
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = other.Get(ctx, RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12})
	assert.NoError(t, err, "clearing one session leaves the others intact")

	n, err = store.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
