package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisDocumentStore) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisDocumentStoreWithClient(client, "agents", "test:", nil)
	return mr, store
}

func TestRedisDocumentStore_SaveAndLoad(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	doc := Document{}
	require.NoError(t, doc.Set("agent-1", map[string]string{"name": "Alice"}))
	require.NoError(t, store.Save(ctx, doc))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	var agent map[string]string
	require.NoError(t, loaded.Get("agent-1", &agent))
	assert.Equal(t, "Alice", agent["name"])
}

func TestRedisDocumentStore_LoadMissingIsEmpty(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestRedisDocumentStore_Mutate(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Mutate(ctx, func(doc Document) error {
			count := 0
			doc.Get("count", &count)
			return doc.Set("count", count+1)
		})
		require.NoError(t, err)
	}

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	var count int
	require.NoError(t, loaded.Get("count", &count))
	assert.Equal(t, 3, count)
}

func TestRedisDocumentStore_SaveReplacesWholeDocument(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	first := Document{}
	first.Set("stale", true)
	require.NoError(t, store.Save(ctx, first))

	second := Document{}
	second.Set("fresh", true)
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded, "stale")
	assert.Contains(t, loaded, "fresh")
}

func TestRedisDocumentStore_DocumentsAreIsolated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	agents := NewRedisDocumentStoreWithClient(client, "agents", "test:", nil)
	orders := NewRedisDocumentStoreWithClient(client, "orders", "test:", nil)

	ctx := context.Background()
	require.NoError(t, agents.Update(ctx, "k", []byte(`"agents"`)))

	doc, err := orders.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)
}
