package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := RequestKey{Kind: KindCategories, FilterOrCategory: "Muscles", Page: 1, Limit: 12}

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Put(ctx, key, []byte(`{"totalPages":1}`)))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"totalPages":1}`, string(got))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CopiesBodies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := RequestKey{Kind: KindExercises, FilterOrCategory: "bodypart=Arms", Page: 1, Limit: 10}

	body := []byte(`{"a":1}`)
	require.NoError(t, store.Put(ctx, key, body))
	body[2] = 'X'

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got), "mutating the caller's slice must not change the entry")

	got[2] = 'Y'
	again, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again), "mutating a returned slice must not change the entry")
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := RequestKey{Kind: KindCategories, FilterOrCategory: "Equipment", Page: 1, Limit: 12}

	require.NoError(t, store.Put(ctx, key, []byte("1")))
	require.NoError(t, store.Put(ctx, key, []byte("2")))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
	assert.Equal(t, 1, store.Len())
}
