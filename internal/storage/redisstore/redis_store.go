// Package redisstore keeps the quiz slots in Redis so several processes on
// one machine (CLI and service) can share a session.
package redisstore

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/storage"
)

const defaultKeyPrefix = "trivia-quiz:"

var _ storage.Store = (*RedisStore)(nil)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to ping redis at %s", addr)
	}

	return NewRedisStoreFromClient(client, opts.Prefix), nil
}

func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read key %q", key)
	}

	if err := storage.Decode(key, data, dst); err != nil {
		return true, err
	}
	return true, nil
}

// Set writes without expiry; session and cache expiry are enforced by the
// timestamps inside the stored values.
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(value)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.client.Set(ctx, s.prefix+key, data, 0).Err(), "failed to write key %q", key)
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, s.prefix+key).Err(), "failed to remove key %q", key)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
