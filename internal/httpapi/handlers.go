package httpapi

import (
	"net/http"
	"time"

	"trivia-quiz/internal/account"
	"trivia-quiz/internal/quiz"
)

func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	period, err := parsePeriodParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	limit, err := parseIntParam(r, "limit", quiz.HistoryCap)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	results, err := a.history.List(r.Context())
	if err != nil {
		a.log.WithError(err).Error("failed to read history")
		writeServiceError(w, err)
		return
	}

	filtered := quiz.FilterByPeriod(results, period, time.Now())
	stats := quiz.ComputeStats(filtered)
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	writeJSON(w, http.StatusOK, historyResponse{Period: period, Results: filtered, Stats: stats})
}

func (a *API) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	results, err := a.history.List(r.Context())
	if err != nil {
		a.log.WithError(err).Error("failed to read history")
		writeServiceError(w, err)
		return
	}

	stats := quiz.ComputeStats(results)
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Badges: quiz.Badges(stats)})
}

func (a *API) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: a.categories.Categories(r.Context())})
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var request account.RegisterRequest
	if err := decodeBody(r, &request); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := a.accounts.Register(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var request account.LoginRequest
	if err := decodeBody(r, &request); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := a.accounts.Login(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := a.accounts.Logout(r.Context()); err != nil {
		a.log.WithError(err).Error("logout failed")
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the current user on GET and applies a profile update on
// PATCH.
func (a *API) HandleMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		user, ok, err := a.accounts.Current(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if !ok {
			writeServiceError(w, account.ErrNotLoggedIn)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{User: user})
	case http.MethodPatch:
		var update account.ProfileUpdate
		if err := decodeBody(r, &update); err != nil {
			writeServiceError(w, err)
			return
		}
		user, err := a.accounts.UpdateProfile(r.Context(), update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{User: user})
	default:
		writeMethodNotAllowed(w, http.MethodGet+", "+http.MethodPatch)
	}
}
