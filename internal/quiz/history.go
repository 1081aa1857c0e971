package quiz

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/logger"
	"trivia-quiz/internal/storage"
)

const HistoryCap = 20

// Periods accepted by FilterByPeriod.
const (
	PeriodAll   = "all"
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// Badge names.
const (
	BadgeRookie = "rookie"
	BadgeLegend = "legend"
)

type History struct {
	store storage.Store
	log   logrus.FieldLogger
}

type Stats struct {
	TotalQuizzes     int `json:"total_quizzes"`
	TotalQuestions   int `json:"total_questions"`
	AverageScore     int `json:"average_score"`
	BestScore        int `json:"best_score"`
	Streak           int `json:"streak"`
	TotalTimeSeconds int `json:"total_time_seconds"`
}

func NewHistory(store storage.Store, log logrus.FieldLogger) *History {
	if log == nil {
		log = logger.Discard()
	}
	return &History{store: store, log: log}
}

// Append stores result as the newest entry, dropping the oldest past the cap.
func (h *History) Append(ctx context.Context, result Result) error {
	results, err := h.List(ctx)
	if err != nil {
		return err
	}

	next := make([]Result, 0, len(results)+1)
	next = append(next, result)
	next = append(next, results...)
	if len(next) > HistoryCap {
		next = next[:HistoryCap]
	}
	return h.store.Set(ctx, storage.HistoryKey, next)
}

// List returns results newest first. A corrupt history reads as empty.
func (h *History) List(ctx context.Context) ([]Result, error) {
	var results []Result
	found, err := h.store.Get(ctx, storage.HistoryKey, &results)
	if err != nil {
		if isCorrupt(err) {
			h.log.WithError(err).Warn("discarding unreadable history")
			return []Result{}, nil
		}
		return nil, err
	}
	if !found || results == nil {
		return []Result{}, nil
	}
	return results, nil
}

func (h *History) Clear(ctx context.Context) error {
	return h.store.Remove(ctx, storage.HistoryKey)
}

// ComputeStats summarises results. Streak repeats the quiz count, matching
// what players have always been shown.
func ComputeStats(results []Result) Stats {
	stats := Stats{TotalQuizzes: len(results)}
	if len(results) == 0 {
		return stats
	}

	sum := 0
	for _, result := range results {
		stats.TotalQuestions += result.Total
		stats.TotalTimeSeconds += result.TimeSpentSeconds
		sum += result.ScorePercent
		if result.ScorePercent > stats.BestScore {
			stats.BestScore = result.ScorePercent
		}
	}
	stats.AverageScore = int(math.Round(float64(sum) / float64(len(results))))
	stats.Streak = stats.TotalQuizzes
	return stats
}

func Badges(stats Stats) []string {
	badges := []string{}
	if stats.TotalQuizzes >= 1 {
		badges = append(badges, BadgeRookie)
	}
	if stats.BestScore >= 90 {
		badges = append(badges, BadgeLegend)
	}
	return badges
}

// FilterByPeriod keeps results completed since local midnight (today), the
// seven days before it (week) or the month before it (month).
func FilterByPeriod(results []Result, period string, now time.Time) []Result {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var since time.Time
	switch period {
	case PeriodToday:
		since = midnight
	case PeriodWeek:
		since = midnight.AddDate(0, 0, -7)
	case PeriodMonth:
		since = midnight.AddDate(0, -1, 0)
	default:
		return results
	}

	filtered := make([]Result, 0, len(results))
	for _, result := range results {
		if !result.CompletedAt.Before(since) {
			filtered = append(filtered, result)
		}
	}
	return filtered
}
