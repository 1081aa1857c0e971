package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"trivia-quiz/internal/account"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid JSON body")

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: quiz.UserMessage(err)})
	case errors.Is(err, quiz.ErrSourceUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: quiz.UserMessage(err)})
	case quiz.IsSemantic(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: quiz.UserMessage(err)})

	case errors.Is(err, session.ErrNoSavedSession):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: session.ErrNoSavedSession.Error()})
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrIndexOutOfRange), errors.Is(err, session.ErrUnknownOption):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrPasswordTooShort),
		errors.Is(err, account.ErrPasswordMismatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, account.ErrEmailTaken), errors.Is(err, account.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, account.ErrEmailNotRegistered), errors.Is(err, account.ErrNotLoggedIn):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	case errors.Is(err, errInvalidBody):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidBody.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// decodeBody accepts an empty body as the zero value.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errInvalidBody, err.Error())
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(errInvalidBody, err.Error())
	}
	return nil
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func parsePeriodParam(r *http.Request) (string, error) {
	period := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("period")))
	switch period {
	case "", quiz.PeriodAll:
		return quiz.PeriodAll, nil
	case quiz.PeriodToday, quiz.PeriodWeek, quiz.PeriodMonth:
		return period, nil
	default:
		return "", errors.New("period must be one of all, today, week, month")
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeMethodNotAllowed(w, method)
		return false
	}
	return true
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
