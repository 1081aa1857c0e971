package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"trivia-quiz/internal/storage"
)

var _ storage.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	var data []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM kv WHERE key = ?`,
		key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to read key %q", key)
	}

	if err := storage.Decode(key, data, dst); err != nil {
		return true, err
	}
	return true, nil
}

// Set upserts the encoded value; the newest write always wins.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(value)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO kv (key, value, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at_unix = excluded.updated_at_unix`,
		key,
		data,
		time.Now().UTC().UnixNano(),
	)
	return errors.Wrapf(err, "failed to write key %q", key)
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return errors.Wrapf(err, "failed to remove key %q", key)
}
