package httpapi

import (
	"net/http"

	"trivia-quiz/internal/logger"
)

func NewRouter(deps Deps) http.Handler {
	api := NewAPI(deps)

	mux := http.NewServeMux()
	mux.HandleFunc("/session", api.HandleSession)
	mux.HandleFunc("/session/start", api.HandleStart)
	mux.HandleFunc("/session/resume", api.HandleResume)
	mux.HandleFunc("/session/answer", api.HandleAnswer)
	mux.HandleFunc("/session/next", api.HandleNext)
	mux.HandleFunc("/session/previous", api.HandlePrevious)
	mux.HandleFunc("/session/index", api.HandleSetIndex)
	mux.HandleFunc("/session/pause", api.HandlePause)
	mux.HandleFunc("/session/unpause", api.HandleUnpause)
	mux.HandleFunc("/session/finish", api.HandleFinish)
	mux.HandleFunc("/session/reset", api.HandleReset)
	mux.HandleFunc("/history", api.HandleHistory)
	mux.HandleFunc("/stats", api.HandleStats)
	mux.HandleFunc("/categories", api.HandleCategories)
	mux.HandleFunc("/auth/register", api.HandleRegister)
	mux.HandleFunc("/auth/login", api.HandleLogin)
	mux.HandleFunc("/auth/logout", api.HandleLogout)
	mux.HandleFunc("/auth/me", api.HandleMe)
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", deps.MetricsHandler)
	}

	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	return withRequestLogging(mux, log, deps.Metrics)
}
