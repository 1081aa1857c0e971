// Package app wires the quiz engine from a resolved config. Both binaries
// build the same object graph through it.
package app

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/account"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/metrics"
	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
	"trivia-quiz/internal/storage"
	"trivia-quiz/internal/storage/redisstore"
	"trivia-quiz/internal/storage/sqlite"
)

type App struct {
	Store    storage.Store
	Provider *quiz.Provider
	History  *quiz.History
	Sessions *session.Manager
	Accounts *account.Service
	Metrics  *metrics.Metrics
}

func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger, service string, reg prometheus.Registerer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.WithField("backend", cfg.StorageBackend).Info("storage ready")

	m := metrics.New(service, reg)
	client := opentdb.NewClient(opentdb.ClientOptions{
		BaseURL: cfg.OpenTDBBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	provider := quiz.NewProvider(quiz.ProviderOptions{
		Source:  client,
		Store:   store,
		Logger:  log.WithField("component", "provider"),
		Metrics: m,
	})
	history := quiz.NewHistory(store, log.WithField("component", "history"))
	sessions := session.New(session.Options{
		Provider:        provider,
		History:         history,
		Store:           store,
		Logger:          log.WithField("component", "session"),
		Metrics:         m,
		DurationSeconds: cfg.QuizDurationSeconds,
		AutoFinishDelay: cfg.AutoFinishDelay,
	})
	accounts := account.NewService(account.Options{
		Store:   store,
		Logger:  log.WithField("component", "account"),
		Session: sessions,
	})

	return &App{
		Store:    store,
		Provider: provider,
		History:  history,
		Sessions: sessions,
		Accounts: accounts,
		Metrics:  m,
	}, nil
}

func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendRedis:
		store, err := redisstore.NewRedisStore(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite, "":
		store, err := sqlite.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// Close saves any live attempt and then closes the store.
func (a *App) Close() error {
	var result *multierror.Error
	if err := a.Sessions.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to close sessions"))
	}
	if err := a.Store.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to close store"))
	}
	return result.ErrorOrNil()
}
