package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"trivia-quiz/internal/config"
	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/session"
	"trivia-quiz/internal/storage"
)

func TestNewWiresMemoryBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.StorageBackend = config.BackendMemory

	a, err := New(context.Background(), cfg, logger.Discard(), "test", prometheus.NewRegistry())
	require.NoError(t, err)
	require.Equal(t, session.StateIdle, a.Sessions.State())
	require.IsType(t, &storage.Memory{}, a.Store)
	require.NoError(t, a.Close())
}

func TestNewWiresSQLiteBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "quiz.db")

	a, err := New(context.Background(), cfg, logger.Discard(), "test", prometheus.NewRegistry())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Store.Set(ctx, storage.HistoryKey, []string{}))
	require.NoError(t, a.Close())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.StorageBackend = "floppy"

	_, err := New(context.Background(), cfg, logger.Discard(), "test", nil)
	require.Error(t, err)
}
