package quiz

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const mixedLabel = "Mixed"

// Result is created once when a session finishes and never mutated.
type Result struct {
	ID               string    `json:"id"`
	Total            int       `json:"total"`
	Correct          int       `json:"correct"`
	Incorrect        int       `json:"incorrect"`
	Unanswered       int       `json:"unanswered"`
	ScorePercent     int       `json:"score_percent"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	TimeUp           bool      `json:"time_up"`
	Category         string    `json:"category"`
	Difficulty       string    `json:"difficulty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// Score grades answers keyed by question index. An absent index is
// unanswered, never incorrect.
func Score(questions []Question, answers map[int]string, initialDuration, timeRemaining int, timeUp bool, now time.Time) Result {
	result := Result{
		ID:          uuid.NewString(),
		Total:       len(questions),
		TimeUp:      timeUp,
		CompletedAt: now,
	}

	for idx, question := range questions {
		answer, ok := answers[idx]
		switch {
		case !ok:
			result.Unanswered++
		case answer == question.CorrectAnswer:
			result.Correct++
		default:
			result.Incorrect++
		}
	}

	if result.Total > 0 {
		result.ScorePercent = int(math.Round(float64(result.Correct) / float64(result.Total) * 100))
	}

	result.TimeSpentSeconds = initialDuration - timeRemaining
	if result.TimeSpentSeconds < 0 {
		result.TimeSpentSeconds = 0
	}

	result.Category = commonField(questions, func(q Question) string { return q.Category })
	result.Difficulty = commonField(questions, func(q Question) string { return q.Difficulty })
	return result
}

func commonField(questions []Question, field func(Question) string) string {
	if len(questions) == 0 {
		return ""
	}
	first := field(questions[0])
	for _, question := range questions[1:] {
		if field(question) != first {
			return mixedLabel
		}
	}
	return first
}
