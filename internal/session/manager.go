package session

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/quiz"
)

// Start fetches questions for cfg and begins a new attempt. A Start issued
// while another is still loading supersedes it; the earlier call returns
// ErrSuperseded and its questions are discarded.
func (m *Manager) Start(ctx context.Context, cfg quiz.Config) error {
	cfg = cfg.Normalize()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	switch m.state {
	case StateIdle, StateFinished:
	case StateLoading:
		m.cancelFetch()
	default:
		m.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "cannot start while %s", m.state)
	}

	m.generation++
	gen := m.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	m.cancelFetch = cancel
	m.state = StateLoading
	m.lastErr = nil
	m.lastResult = nil
	m.mu.Unlock()

	fetched, err := m.provider.Fetch(fetchCtx, cfg)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return ErrSuperseded
	}
	m.cancelFetch = nil

	if err == nil && len(fetched.Questions) == 0 {
		err = quiz.ErrInsufficientQuestions
	}
	if err != nil {
		m.state = StateIdle
		m.lastErr = err
		m.log.WithError(err).WithField("cache_key", cfg.CacheKey()).Warn("failed to start quiz")
		return err
	}

	now := m.now()
	m.snap = Snapshot{
		Questions:              fetched.Questions,
		CurrentIndex:           0,
		Answers:                make(map[int]string),
		TimeRemainingSeconds:   m.duration,
		InitialDurationSeconds: m.duration,
		Config:                 cfg,
		StartedAt:              now,
		ExpiresAt:              now.Add(SnapshotTTL),
	}
	m.state = StateActive
	m.startTickerLocked()

	m.log.WithFields(logrus.Fields{
		"questions": len(fetched.Questions),
		"stale":     fetched.Stale,
	}).Info("quiz started")
	if err := m.persistLocked(); err != nil {
		return errors.Wrapf(ErrNotSaved, "%v", err)
	}
	return nil
}

// SelectAnswer records option for the question at index. It reports false
// when an answer was already recorded there; the first answer is kept.
func (m *Manager) SelectAnswer(index int, option string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return false, errors.Wrapf(ErrInvalidState, "cannot answer while %s", m.state)
	}
	if index < 0 || index >= len(m.snap.Questions) {
		return false, errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	if !m.snap.Questions[index].HasOption(option) {
		return false, errors.Wrapf(ErrUnknownOption, "%q", option)
	}
	if _, answered := m.snap.Answers[index]; answered {
		return false, nil
	}

	m.snap.Answers[index] = option
	if err := m.persistLocked(); err != nil {
		return true, err
	}

	if m.lastAnsweredLocked() {
		m.scheduleAutoFinishLocked()
	}
	return true, nil
}

func (m *Manager) Next() error {
	return m.move(func(current, _ int) (int, error) { return current + 1, nil })
}

func (m *Manager) Previous() error {
	return m.move(func(current, _ int) (int, error) { return current - 1, nil })
}

// SetIndex jumps to index. Unlike Next and Previous, an index outside the
// question list is an error rather than a no-op.
func (m *Manager) SetIndex(index int) error {
	return m.move(func(_, total int) (int, error) {
		if index < 0 || index >= total {
			return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
		}
		return index, nil
	})
}

func (m *Manager) move(target func(current, total int) (int, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive && m.state != StatePaused {
		return errors.Wrapf(ErrInvalidState, "cannot navigate while %s", m.state)
	}

	next, err := target(m.snap.CurrentIndex, len(m.snap.Questions))
	if err != nil {
		return err
	}
	if next < 0 {
		next = 0
	}
	if last := len(m.snap.Questions) - 1; next > last {
		next = last
	}
	m.snap.CurrentIndex = next
	return m.persistLocked()
}

// Tick advances the countdown by one second. At zero the attempt finishes
// with TimeUp set.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
}

func (m *Manager) tickLocked() {
	if m.state != StateActive {
		return
	}

	if m.snap.TimeRemainingSeconds > 0 {
		m.snap.TimeRemainingSeconds--
	}
	if m.snap.TimeRemainingSeconds == 0 {
		m.finishLocked(true)
		return
	}
	_ = m.persistLocked()
}

func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return errors.Wrapf(ErrInvalidState, "cannot pause while %s", m.state)
	}
	m.stopTimersLocked()
	m.state = StatePaused
	return m.persistLocked()
}

func (m *Manager) Unpause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePaused {
		return errors.Wrapf(ErrInvalidState, "cannot unpause while %s", m.state)
	}
	m.state = StateActive
	m.startTickerLocked()
	if m.lastAnsweredLocked() {
		m.scheduleAutoFinishLocked()
	}
	return nil
}

// Finish scores the attempt immediately, regardless of position or any
// pending auto-finish.
func (m *Manager) Finish() (quiz.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive && m.state != StatePaused {
		return quiz.Result{}, errors.Wrapf(ErrInvalidState, "cannot finish while %s", m.state)
	}
	return m.finishLocked(false), nil
}

func (m *Manager) finishLocked(timeUp bool) quiz.Result {
	m.stopTimersLocked()

	result := quiz.Score(
		m.snap.Questions,
		m.snap.Answers,
		m.snap.InitialDurationSeconds,
		m.snap.TimeRemainingSeconds,
		timeUp,
		m.now(),
	)

	m.state = StateFinished
	m.lastResult = &result
	m.clearSnapshotLocked()

	if m.history != nil {
		if err := m.history.Append(context.Background(), result); err != nil {
			m.log.WithError(err).Warn("failed to append result to history")
		}
	}

	m.metrics.ObserveFinish(result.ScorePercent, timeUp)
	m.log.WithFields(logrus.Fields{
		"result_id": result.ID,
		"score":     result.ScorePercent,
		"time_up":   timeUp,
	}).Info("quiz finished")

	m.publishLocked(result)
	return result
}

// Resume restores the saved attempt verbatim and restarts its countdown.
// An unreadable or expired snapshot is cleared and reported as
// ErrNoSavedSession.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.state != StateIdle {
		return errors.Wrapf(ErrInvalidState, "cannot resume while %s", m.state)
	}

	snap, ok := m.loadSnapshot(ctx, true)
	if !ok {
		return ErrNoSavedSession
	}

	m.generation++
	m.snap = snap
	m.state = StateActive
	m.lastErr = nil
	m.lastResult = nil
	m.startTickerLocked()
	if m.lastAnsweredLocked() {
		m.scheduleAutoFinishLocked()
	}

	m.log.WithFields(logrus.Fields{
		"index":          snap.CurrentIndex,
		"answered":       len(snap.Answers),
		"time_remaining": snap.TimeRemainingSeconds,
	}).Info("quiz resumed")
	return nil
}

// Reset discards the attempt, in memory and persisted, and returns to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.abandonLocked()
	m.clearSnapshotLocked()
	m.snap = Snapshot{}
	m.lastResult = nil
}

// Suspend saves a live attempt and stops its timers so it can be resumed
// later. A pending fetch is abandoned.
func (m *Manager) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateActive, StatePaused:
		err := m.persistLocked()
		m.abandonLocked()
		m.snap = Snapshot{}
		return err
	case StateLoading:
		m.abandonLocked()
	}
	return nil
}

func (m *Manager) abandonLocked() {
	m.generation++
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	m.stopTimersLocked()
	m.state = StateIdle
	m.lastErr = nil
}
