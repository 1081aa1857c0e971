package httpapi

import (
	"trivia-quiz/internal/account"
	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
)

type startRequest struct {
	Amount     int    `json:"amount"`
	Category   int    `json:"category"`
	Difficulty string `json:"difficulty"`
	Type       string `json:"type"`
}

// answerRequest takes either the option text or its letter.
type answerRequest struct {
	Index  *int   `json:"index"`
	Option string `json:"option"`
	Letter string `json:"letter"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type answerResponse struct {
	Accepted bool         `json:"accepted"`
	Session  session.View `json:"session"`
}

type historyResponse struct {
	Period  string        `json:"period"`
	Results []quiz.Result `json:"results"`
	Stats   quiz.Stats    `json:"stats"`
}

type statsResponse struct {
	Stats  quiz.Stats `json:"stats"`
	Badges []string   `json:"badges"`
}

type categoriesResponse struct {
	Categories []opentdb.Category `json:"categories"`
}

type userResponse struct {
	User account.User `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}
