package quiz

import (
	"fmt"
	"html"
	"math/rand"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/storage"
)

const (
	DefaultAmount     = 5
	defaultDifficulty = "medium"
)

// Question is immutable once built. Options hold the correct answer exactly
// once, in the order it was shuffled at build time.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Type          string   `json:"type"`
}

// Config is the quiz filter. Zero values mean "any".
type Config struct {
	Amount     int    `json:"amount"`
	Category   int    `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Type       string `json:"type,omitempty"`
}

func (c Config) Normalize() Config {
	if c.Amount <= 0 {
		c.Amount = DefaultAmount
	}
	if c.Category < 0 {
		c.Category = 0
	}
	c.Difficulty = strings.ToLower(strings.TrimSpace(c.Difficulty))
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	return c
}

// CacheKey is derived from the exact query parameters.
func (c Config) CacheKey() string {
	c = c.Normalize()
	category := ""
	if c.Category > 0 {
		category = strconv.Itoa(c.Category)
	}
	return fmt.Sprintf("%s%d_%s_%s_%s", storage.QuestionsCachePrefix, c.Amount, category, c.Difficulty, c.Type)
}

func (c Config) query() opentdb.Query {
	c = c.Normalize()
	return opentdb.Query{
		Amount:     c.Amount,
		Category:   c.Category,
		Difficulty: c.Difficulty,
		Type:       c.Type,
	}
}

func DecodeHTML(s string) string {
	return html.UnescapeString(s)
}

// FormatOptions returns correct plus incorrect in uniformly random order
// using an in-place Fisher-Yates shuffle. A nil rng uses the global source.
func FormatOptions(correct string, incorrect []string, rng *rand.Rand) []string {
	if correct == "" {
		return []string{}
	}

	options := make([]string, 0, len(incorrect)+1)
	options = append(options, correct)
	options = append(options, incorrect...)

	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(options) - 1; i > 0; i-- {
		j := intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
	return options
}

func BuildQuestions(raw []opentdb.RawQuestion, rng *rand.Rand) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		question := buildQuestion(item, rng)
		question.ID = MakeQuestionID(question)
		questions = append(questions, question)
	}
	return questions
}

// MakeQuestionID hashes the prompt and the option order.
func MakeQuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Prompt)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option)
	}

	return fmt.Sprintf("q_%016x", xxh3.HashString(keyBuilder.String()))
}

// OptionLetter maps an option index to A, B, C...
func OptionLetter(index int) string {
	return string(rune('A' + index))
}

// OptionByLetter resolves a letter answer like "b" to the option text.
func (q Question) OptionByLetter(answer string) (string, bool) {
	letter := normalizeLetter(answer)
	if letter == "" {
		return "", false
	}

	index := int(letter[0] - 'A')
	if index < 0 || index >= len(q.Options) {
		return "", false
	}
	return q.Options[index], true
}

func (q Question) HasOption(option string) bool {
	for _, candidate := range q.Options {
		if candidate == option {
			return true
		}
	}
	return false
}

func normalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 {
		return ""
	}
	return letter
}

func buildQuestion(raw opentdb.RawQuestion, rng *rand.Rand) Question {
	incorrect := make([]string, 0, len(raw.IncorrectAnswers))
	for _, answer := range raw.IncorrectAnswers {
		incorrect = append(incorrect, DecodeHTML(answer))
	}

	difficulty := strings.TrimSpace(raw.Difficulty)
	if difficulty == "" {
		difficulty = defaultDifficulty
	}

	correct := DecodeHTML(raw.CorrectAnswer)
	return Question{
		Prompt:        DecodeHTML(raw.Question),
		CorrectAnswer: correct,
		Options:       FormatOptions(correct, incorrect, rng),
		Category:      DecodeHTML(raw.Category),
		Difficulty:    difficulty,
		Type:          raw.Type,
	}
}
