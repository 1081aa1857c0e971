package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trivia-quiz/internal/storage"
)

// Runs only against a live server: REDIS_ADDR=localhost:6379 go test ./...
func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	store, err := NewRedisStore(ctx, Options{Addr: addr, Prefix: "test-" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, storage.HistoryKey, []int{3, 2, 1}))

	var got []int
	found, err := store.Get(ctx, storage.HistoryKey, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []int{3, 2, 1}, got)

	require.NoError(t, store.Remove(ctx, storage.HistoryKey))
	found, err = store.Get(ctx, storage.HistoryKey, &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRedisStoreCorrupt(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.client.Set(ctx, store.prefix+"broken", "{", 0).Err())

	var got map[string]any
	_, err := store.Get(ctx, "broken", &got)
	require.ErrorIs(t, err, storage.ErrCorrupt)
}
