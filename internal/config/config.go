// Package config resolves runtime settings from config.env or .env, then
// the process environment, then command-line flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"trivia-quiz/internal/opentdb"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	Addr                string
	StorageBackend      string
	DBPath              string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	OpenTDBBaseURL      string
	HTTPTimeout         time.Duration
	QuizDurationSeconds int
	AutoFinishDelay     time.Duration
	LogLevel            string
}

var configPaths = []string{"config.env", "../config.env", "../../config.env"}

// LoadEnvFiles loads the first config.env found, falling back to .env.
// Variables already set in the environment win. It reports which file was
// loaded, or "" when none was.
func LoadEnvFiles() string {
	for _, path := range configPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	if err := godotenv.Load(); err == nil {
		return ".env"
	}
	return ""
}

func Defaults() Config {
	return Config{
		Addr:                ":8080",
		StorageBackend:      BackendSQLite,
		DBPath:              "quiz.db",
		RedisAddr:           "localhost:6379",
		OpenTDBBaseURL:      opentdb.DefaultBaseURL,
		HTTPTimeout:         15 * time.Second,
		QuizDurationSeconds: 300,
		AutoFinishDelay:     time.Second,
		LogLevel:            "info",
	}
}

// FromEnv overlays the environment on Defaults. Unparseable numbers and
// durations are reported together.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Defaults()
	var result *multierror.Error

	setString := func(key string, dst *string) {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			*dst = value
		}
	}
	setInt := func(key string, dst *int) {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "%s", key))
			return
		}
		*dst = parsed
	}
	setDuration := func(key string, dst *time.Duration) {
		value := strings.TrimSpace(getenv(key))
		if value == "" {
			return
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "%s", key))
			return
		}
		*dst = parsed
	}

	setString("ADDR", &cfg.Addr)
	setString("STORAGE_BACKEND", &cfg.StorageBackend)
	setString("DB_PATH", &cfg.DBPath)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setInt("REDIS_DB", &cfg.RedisDB)
	setString("OPENTDB_BASE_URL", &cfg.OpenTDBBaseURL)
	setDuration("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	setInt("QUIZ_DURATION_SECONDS", &cfg.QuizDurationSeconds)
	setDuration("AUTO_FINISH_DELAY", &cfg.AutoFinishDelay)
	setString("LOG_LEVEL", &cfg.LogLevel)

	cfg.StorageBackend = strings.ToLower(cfg.StorageBackend)
	return cfg, result.ErrorOrNil()
}

// RegisterFlags binds flags whose defaults are the current values, so flags
// override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.StorageBackend, "storage", c.StorageBackend, "storage backend: sqlite, redis or memory")
	fs.StringVar(&c.DBPath, "db-path", c.DBPath, "SQLite database path")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")
	fs.StringVar(&c.OpenTDBBaseURL, "opentdb-url", c.OpenTDBBaseURL, "OpenTriviaDB base URL")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", c.HTTPTimeout, "question source request timeout")
	fs.IntVar(&c.QuizDurationSeconds, "duration", c.QuizDurationSeconds, "quiz length in seconds")
	fs.DurationVar(&c.AutoFinishDelay, "auto-finish-delay", c.AutoFinishDelay, "delay before finishing after the last answer")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

func (c Config) Validate() error {
	var result *multierror.Error

	switch c.StorageBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		result = multierror.Append(result, errors.Errorf("unknown storage backend %q", c.StorageBackend))
	}
	if c.StorageBackend == BackendRedis && strings.TrimSpace(c.RedisAddr) == "" {
		result = multierror.Append(result, errors.New("redis backend needs REDIS_ADDR"))
	}
	if c.QuizDurationSeconds <= 0 {
		result = multierror.Append(result, errors.Errorf("quiz duration must be positive, got %d", c.QuizDurationSeconds))
	}
	if c.HTTPTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.AutoFinishDelay < 0 {
		result = multierror.Append(result, errors.Errorf("auto-finish delay must not be negative, got %s", c.AutoFinishDelay))
	}
	return result.ErrorOrNil()
}
