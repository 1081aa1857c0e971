// Package storage is the key-value persistence layer the quiz engine writes
// its session snapshot, user records and result history through.
package storage

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Well-known slots.
const (
	SessionKey           = "quizapp_quiz_state"
	CurrentUserKey       = "quizapp_user_state"
	RegisteredUsersKey   = "quizapp_registered_users"
	HistoryKey           = "quizapp_history"
	QuestionsCachePrefix = "quizapp_questions_cache"
	CategoriesCacheKey   = "quizapp_categories_cache"
)

var (
	ErrCorrupt = errors.New("stored value is corrupt")
	ErrClosed  = errors.New("store is closed")
)

// Store is a synchronous JSON key-value store. Writes are last-write-wins.
//
// Get reports found=false with a nil error when the key is absent. A value
// that cannot be decoded into dst yields an error matching ErrCorrupt.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Encode is the codec every backend stores values with.
func Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %T", value)
	}
	return data, nil
}

// Decode unmarshals a stored value, classifying failures as ErrCorrupt.
func Decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(ErrCorrupt, "key %q: %v", key, err)
	}
	return nil
}
