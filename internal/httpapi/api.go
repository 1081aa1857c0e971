package httpapi

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/account"
	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/metrics"
	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
)

// Sessions is the session manager as the HTTP surface drives it.
type Sessions interface {
	Start(ctx context.Context, cfg quiz.Config) error
	Resume(ctx context.Context) error
	SelectAnswer(index int, option string) (bool, error)
	Next() error
	Previous() error
	SetIndex(index int) error
	Pause() error
	Unpause() error
	Finish() (quiz.Result, error)
	Reset()
	View(ctx context.Context) session.View
	Snapshot() (session.Snapshot, bool)
}

type CategoryLister interface {
	Categories(ctx context.Context) []opentdb.Category
}

type HistoryReader interface {
	List(ctx context.Context) ([]quiz.Result, error)
}

type Accounts interface {
	Register(ctx context.Context, req account.RegisterRequest) (account.User, error)
	Login(ctx context.Context, req account.LoginRequest) (account.User, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (account.User, bool, error)
	UpdateProfile(ctx context.Context, update account.ProfileUpdate) (account.User, error)
}

type Deps struct {
	Sessions   Sessions
	Categories CategoryLister
	History    HistoryReader
	Accounts   Accounts
	Logger     logrus.FieldLogger
	Metrics    *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

type API struct {
	sessions   Sessions
	categories CategoryLister
	history    HistoryReader
	accounts   Accounts
	log        logrus.FieldLogger
}

func NewAPI(deps Deps) *API {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &API{
		sessions:   deps.Sessions,
		categories: deps.Categories,
		history:    deps.History,
		accounts:   deps.Accounts,
		log:        log,
	}
}
