// Package session owns the lifecycle of one quiz attempt: fetching the
// questions, recording answers, running the countdown, scoring, and keeping
// a resumable snapshot in the store.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/metrics"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/storage"
)

const (
	DefaultDurationSeconds = 300
	DefaultAutoFinishDelay = time.Second
	SnapshotTTL            = 24 * time.Hour
)

type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateFinished State = "finished"
)

var (
	ErrInvalidState    = errors.New("action not allowed in the current session state")
	ErrNoSavedSession  = errors.New("no saved session to resume")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrUnknownOption   = errors.New("option is not offered for this question")
	ErrSuperseded      = errors.New("start superseded by a newer request")
	ErrClosed          = errors.New("session manager is closed")

	// ErrNotSaved means the attempt is running but its snapshot write failed.
	ErrNotSaved = errors.New("session is running but could not be saved")
)

type QuestionProvider interface {
	Fetch(ctx context.Context, cfg quiz.Config) (quiz.FetchResult, error)
}

type ResultRecorder interface {
	Append(ctx context.Context, result quiz.Result) error
}

// TickerFunc returns a channel delivering one value per elapsed second and
// a func that stops it.
type TickerFunc func() (<-chan time.Time, func())

func SecondTicker() (<-chan time.Time, func()) {
	ticker := time.NewTicker(time.Second)
	return ticker.C, ticker.Stop
}

type Options struct {
	Provider        QuestionProvider
	History         ResultRecorder
	Store           storage.Store
	Logger          logrus.FieldLogger
	Metrics         *metrics.Metrics
	DurationSeconds int
	AutoFinishDelay time.Duration
	Now             func() time.Time
	NewTicker       TickerFunc
}

// Manager is safe for concurrent use. The countdown goroutine, the
// auto-finish timer and callers all go through mu.
type Manager struct {
	provider   QuestionProvider
	history    ResultRecorder
	store      storage.Store
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
	duration   int
	graceDelay time.Duration
	now        func() time.Time
	newTicker  TickerFunc

	mu         sync.Mutex
	state      State
	snap       Snapshot
	lastErr    error
	lastResult *quiz.Result
	closed     bool

	// generation changes whenever the current attempt is replaced, so late
	// fetches and grace timers can tell they no longer apply.
	generation  uint64
	cancelFetch context.CancelFunc
	tickerDone  chan struct{}
	tickerStop  func()
	graceTimer  *time.Timer

	subscribers map[int]chan quiz.Result
	nextSubID   int
}

func New(opts Options) *Manager {
	m := &Manager{
		provider:    opts.Provider,
		history:     opts.History,
		store:       opts.Store,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		duration:    opts.DurationSeconds,
		graceDelay:  opts.AutoFinishDelay,
		now:         opts.Now,
		newTicker:   opts.NewTicker,
		state:       StateIdle,
		subscribers: make(map[int]chan quiz.Result),
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.duration <= 0 {
		m.duration = DefaultDurationSeconds
	}
	if m.graceDelay <= 0 {
		m.graceDelay = DefaultAutoFinishDelay
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newTicker == nil {
		m.newTicker = SecondTicker
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe delivers every finished Result until cancel is called.
func (m *Manager) Subscribe() (<-chan quiz.Result, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan quiz.Result, 1)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(sub)
			}
		})
	}
}

func (m *Manager) publishLocked(result quiz.Result) {
	for _, ch := range m.subscribers {
		select {
		case ch <- result:
		default:
			m.log.WithField("result_id", result.ID).Warn("dropping result for slow subscriber")
		}
	}
}

// Close suspends any live attempt and ends all subscriptions.
func (m *Manager) Close() error {
	err := m.Suspend()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
	return err
}
