package config

import (
	"flag"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"ADDR":                  ":9090",
		"STORAGE_BACKEND":       "Redis",
		"REDIS_ADDR":            "cache:6379",
		"REDIS_DB":              "2",
		"HTTP_TIMEOUT":          "5s",
		"QUIZ_DURATION_SECONDS": "120",
		"AUTO_FINISH_DELAY":     "250ms",
		"LOG_LEVEL":             "debug",
	}))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, BackendRedis, cfg.StorageBackend)
	require.Equal(t, "cache:6379", cfg.RedisAddr)
	require.Equal(t, 2, cfg.RedisDB)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 120, cfg.QuizDurationSeconds)
	require.Equal(t, 250*time.Millisecond, cfg.AutoFinishDelay)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnvReportsEveryBadValue(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"REDIS_DB":     "zero",
		"HTTP_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "REDIS_DB")
	require.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"ADDR": ":9090"}))
	require.NoError(t, err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-addr", ":7070", "-storage", "memory"}))

	require.Equal(t, ":7070", cfg.Addr)
	require.Equal(t, BackendMemory, cfg.StorageBackend)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.StorageBackend = "postgres"
	cfg.QuizDurationSeconds = 0

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "postgres")
	require.Contains(t, err.Error(), "quiz duration")
}

func TestValidateErrorsCarryStackTraces(t *testing.T) {
	cfg := Defaults()
	cfg.StorageBackend = "postgres"
	cfg.QuizDurationSeconds = 0
	cfg.HTTPTimeout = 0
	cfg.AutoFinishDelay = -time.Second

	var merr *multierror.Error
	require.True(t, errors.As(cfg.Validate(), &merr))
	require.Len(t, merr.Errors, 4)
	for _, err := range merr.Errors {
		_, traced := err.(interface{ StackTrace() errors.StackTrace })
		require.True(t, traced, "%v", err)
	}
}
