package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fiveQuestions() []Question {
	questions := make([]Question, 5)
	for i := range questions {
		questions[i] = Question{
			Prompt:        "Q",
			CorrectAnswer: "right",
			Options:       []string{"right", "wrong"},
			Category:      "History",
			Difficulty:    "easy",
		}
	}
	return questions
}

func TestScoreManualFinishScenario(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	answers := map[int]string{0: "right", 1: "right", 2: "right", 3: "wrong"}

	result := Score(fiveQuestions(), answers, 300, 120, false, now)

	require.Equal(t, 5, result.Total)
	require.Equal(t, 3, result.Correct)
	require.Equal(t, 1, result.Incorrect)
	require.Equal(t, 1, result.Unanswered)
	require.Equal(t, 60, result.ScorePercent)
	require.Equal(t, 180, result.TimeSpentSeconds)
	require.False(t, result.TimeUp)
	require.Equal(t, "History", result.Category)
	require.Equal(t, now, result.CompletedAt)
	require.NotEmpty(t, result.ID)
}

func TestScoreCountsAlwaysSumToTotal(t *testing.T) {
	questions := fiveQuestions()
	answerSets := []map[int]string{
		nil,
		{},
		{0: "right"},
		{0: "wrong", 1: "wrong", 2: "wrong", 3: "wrong", 4: "wrong"},
		{4: "right", 2: "nonsense"},
		{7: "right"},
	}

	for _, answers := range answerSets {
		result := Score(questions, answers, 300, 0, true, time.Now())
		require.Equal(t, result.Total, result.Correct+result.Incorrect+result.Unanswered, "answers %v", answers)
	}
}

func TestScoreEdgeCases(t *testing.T) {
	empty := Score(nil, nil, 300, 300, false, time.Now())
	require.Zero(t, empty.Total)
	require.Zero(t, empty.ScorePercent)
	require.Zero(t, empty.TimeSpentSeconds)

	overrun := Score(fiveQuestions(), nil, 300, 400, false, time.Now())
	require.Zero(t, overrun.TimeSpentSeconds)

	rounded := Score(fiveQuestions()[:3], map[int]string{0: "right", 1: "right"}, 300, 0, true, time.Now())
	require.Equal(t, 67, rounded.ScorePercent)
	require.Equal(t, 300, rounded.TimeSpentSeconds)
}

func TestScoreMixedCategory(t *testing.T) {
	questions := fiveQuestions()
	questions[1].Category = "Art"

	result := Score(questions, nil, 300, 0, false, time.Now())
	require.Equal(t, mixedLabel, result.Category)
	require.Equal(t, "easy", result.Difficulty)
}
