package storage

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemorySetGetRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemory()

	var got sample
	found, err := store.Get(ctx, "missing", &got)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Set(ctx, "k", sample{Name: "a", Count: 2}))
	found, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, sample{Name: "a", Count: 2}, got)

	require.NoError(t, store.Set(ctx, "k", sample{Name: "b"}))
	got = sample{}
	_, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.Equal(t, "b", got.Name)

	require.NoError(t, store.Remove(ctx, "k"))
	found, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryGetCorrupt(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	store.PutRaw("k", []byte("{not-json"))

	var got sample
	found, err := store.Get(context.Background(), "k", &got)
	require.True(t, found)
	require.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
}

func TestMemoryClosed(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	require.NoError(t, store.Close())
	require.ErrorIs(t, store.Set(context.Background(), "k", 1), ErrClosed)
}
