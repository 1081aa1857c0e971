package session

import (
	"context"
	"fmt"
	"math"

	"trivia-quiz/internal/quiz"
)

// Timer statuses.
const (
	TimerNormal  = "normal"
	TimerWarning = "warning"
	TimerDanger  = "danger"
)

// QuestionView is a question as presented to the player, without its answer.
type QuestionView struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
}

// View is everything a front end renders for the current attempt.
type View struct {
	State                State         `json:"state"`
	Question             *QuestionView `json:"question,omitempty"`
	CurrentIndex         int           `json:"current_index"`
	Total                int           `json:"total"`
	AnsweredCount        int           `json:"answered_count"`
	SelectedOption       string        `json:"selected_option,omitempty"`
	TimeRemainingSeconds int           `json:"time_remaining_seconds"`
	TimeFormatted        string        `json:"time_formatted"`
	TimerStatus          string        `json:"timer_status"`
	TimerPercent         int           `json:"timer_percent"`
	ProgressPercent      int           `json:"progress_percent"`
	IsFirst              bool          `json:"is_first"`
	IsLast               bool          `json:"is_last"`
	Loading              bool          `json:"loading"`
	Error                string        `json:"error,omitempty"`
	LastResult           *quiz.Result  `json:"last_result,omitempty"`
	HasSavedSession      bool          `json:"has_saved_session"`
}

func (m *Manager) View(ctx context.Context) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := View{
		State:           m.state,
		Loading:         m.state == StateLoading,
		Error:           quiz.UserMessage(m.lastErr),
		LastResult:      m.lastResult,
		HasSavedSession: m.hasSavedSessionLocked(ctx),
		TimerStatus:     TimerNormal,
		TimeFormatted:   FormatTime(0),
	}

	if m.state != StateActive && m.state != StatePaused {
		return view
	}

	snap := m.snap
	question := snap.Questions[snap.CurrentIndex]
	view.Question = &QuestionView{
		ID:         question.ID,
		Prompt:     question.Prompt,
		Options:    append([]string(nil), question.Options...),
		Category:   question.Category,
		Difficulty: question.Difficulty,
	}
	view.CurrentIndex = snap.CurrentIndex
	view.Total = len(snap.Questions)
	view.AnsweredCount = len(snap.Answers)
	view.SelectedOption = snap.Answers[snap.CurrentIndex]
	view.TimeRemainingSeconds = snap.TimeRemainingSeconds
	view.TimeFormatted = FormatTime(snap.TimeRemainingSeconds)
	view.TimerStatus = TimerStatus(snap.TimeRemainingSeconds, snap.InitialDurationSeconds)
	view.TimerPercent = percent(snap.TimeRemainingSeconds, snap.InitialDurationSeconds)
	view.ProgressPercent = percent(snap.CurrentIndex+1, len(snap.Questions))
	view.IsFirst = snap.CurrentIndex == 0
	view.IsLast = snap.CurrentIndex == len(snap.Questions)-1
	return view
}

// Snapshot returns a copy of the live attempt.
func (m *Manager) Snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive && m.state != StatePaused {
		return Snapshot{}, false
	}
	return m.snap.clone(), true
}

// LastResult is the most recent Result since the last Start or Reset.
func (m *Manager) LastResult() (quiz.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastResult == nil {
		return quiz.Result{}, false
	}
	return *m.lastResult, true
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// TimerStatus is danger at or below a fifth of the duration and warning at
// or below two fifths.
func TimerStatus(remaining, initial int) string {
	if initial <= 0 {
		return TimerNormal
	}
	switch {
	case remaining*5 <= initial:
		return TimerDanger
	case remaining*5 <= initial*2:
		return TimerWarning
	default:
		return TimerNormal
	}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
