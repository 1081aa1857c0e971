package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/storage"
)

// Snapshot is the persisted form of a live attempt.
type Snapshot struct {
	Questions              []quiz.Question `json:"questions"`
	CurrentIndex           int             `json:"current_index"`
	Answers                map[int]string  `json:"answers"`
	TimeRemainingSeconds   int             `json:"time_remaining_seconds"`
	InitialDurationSeconds int             `json:"initial_duration_seconds"`
	Config                 quiz.Config     `json:"config"`
	StartedAt              time.Time       `json:"started_at"`
	SavedAt                time.Time       `json:"saved_at"`
	ExpiresAt              time.Time       `json:"expires_at"`
}

var errMalformedSnapshot = errors.New("malformed session snapshot")

func (s Snapshot) validate() error {
	switch {
	case len(s.Questions) == 0:
		return errors.Wrap(errMalformedSnapshot, "no questions")
	case s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions):
		return errors.Wrapf(errMalformedSnapshot, "index %d outside %d questions", s.CurrentIndex, len(s.Questions))
	case s.InitialDurationSeconds <= 0:
		return errors.Wrap(errMalformedSnapshot, "no duration")
	case s.TimeRemainingSeconds <= 0 || s.TimeRemainingSeconds > s.InitialDurationSeconds:
		return errors.Wrapf(errMalformedSnapshot, "time remaining %d", s.TimeRemainingSeconds)
	case s.ExpiresAt.IsZero():
		return errors.Wrap(errMalformedSnapshot, "no expiry")
	}
	for idx := range s.Answers {
		if idx < 0 || idx >= len(s.Questions) {
			return errors.Wrapf(errMalformedSnapshot, "answer for index %d", idx)
		}
	}
	return nil
}

func (s Snapshot) clone() Snapshot {
	answers := make(map[int]string, len(s.Answers))
	for idx, answer := range s.Answers {
		answers[idx] = answer
	}
	s.Answers = answers
	return s
}

// persistLocked writes the live attempt. The caller's context may already
// be gone by the time a timer fires, so writes use their own.
func (m *Manager) persistLocked() error {
	m.snap.SavedAt = m.now()
	if err := m.store.Set(context.Background(), storage.SessionKey, m.snap); err != nil {
		m.log.WithError(err).Warn("failed to persist session snapshot")
		return errors.Wrap(err, "failed to persist session snapshot")
	}
	return nil
}

func (m *Manager) clearSnapshotLocked() {
	if err := m.store.Remove(context.Background(), storage.SessionKey); err != nil {
		m.log.WithError(err).Warn("failed to clear session snapshot")
	}
}

// loadSnapshot returns the stored snapshot if it is readable, well formed
// and not expired. Anything else is cleared when clear is set.
func (m *Manager) loadSnapshot(ctx context.Context, clear bool) (Snapshot, bool) {
	var snap Snapshot
	found, err := m.store.Get(ctx, storage.SessionKey, &snap)
	if !found && err == nil {
		return Snapshot{}, false
	}

	if err == nil {
		err = snap.validate()
	}
	if err == nil && !m.now().Before(snap.ExpiresAt) {
		err = errors.New("session snapshot expired")
	}
	if err != nil {
		if clear {
			m.log.WithError(err).Info("discarding saved session")
			if rmErr := m.store.Remove(ctx, storage.SessionKey); rmErr != nil {
				m.log.WithError(rmErr).Warn("failed to clear session snapshot")
			}
		}
		return Snapshot{}, false
	}

	if snap.Answers == nil {
		snap.Answers = make(map[int]string)
	}
	return snap, true
}

// HasSavedSession reports whether Resume would succeed.
func (m *Manager) HasSavedSession(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasSavedSessionLocked(ctx)
}

func (m *Manager) hasSavedSessionLocked(ctx context.Context) bool {
	if m.state != StateIdle {
		return false
	}
	_, ok := m.loadSnapshot(ctx, false)
	return ok
}
