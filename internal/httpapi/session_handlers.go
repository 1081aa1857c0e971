package httpapi

import (
	"net/http"

	"github.com/pkg/errors"

	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
)

func (a *API) HandleSession(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, a.sessions.View(r.Context()))
}

func (a *API) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var request startRequest
	if err := decodeBody(r, &request); err != nil {
		writeServiceError(w, err)
		return
	}
	if request.Amount < 0 || request.Category < 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount and category must not be negative"})
		return
	}

	err := a.sessions.Start(r.Context(), quiz.Config{
		Amount:     request.Amount,
		Category:   request.Category,
		Difficulty: request.Difficulty,
		Type:       request.Type,
	})
	if errors.Is(err, session.ErrNotSaved) {
		a.log.WithError(err).Warn("quiz started without a saved snapshot")
		err = nil
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.sessions.View(r.Context()))
}

func (a *API) HandleResume(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := a.sessions.Resume(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessions.View(r.Context()))
}

func (a *API) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var request answerRequest
	if err := decodeBody(r, &request); err != nil {
		writeServiceError(w, err)
		return
	}

	index, option, err := a.resolveAnswer(request)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	accepted, err := a.sessions.SelectAnswer(index, option)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Accepted: accepted, Session: a.sessions.View(r.Context())})
}

// resolveAnswer defaults the index to the current question and maps a
// letter to its option text.
func (a *API) resolveAnswer(request answerRequest) (int, string, error) {
	snap, ok := a.sessions.Snapshot()
	if !ok {
		return 0, "", errors.Wrap(session.ErrInvalidState, "no quiz in progress")
	}

	index := snap.CurrentIndex
	if request.Index != nil {
		index = *request.Index
	}
	if index < 0 || index >= len(snap.Questions) {
		return 0, "", errors.Wrapf(session.ErrIndexOutOfRange, "index %d", index)
	}

	if request.Option != "" {
		return index, request.Option, nil
	}
	option, ok := snap.Questions[index].OptionByLetter(request.Letter)
	if !ok {
		return 0, "", errors.Wrapf(session.ErrUnknownOption, "letter %q", request.Letter)
	}
	return index, option, nil
}

func (a *API) HandleNext(w http.ResponseWriter, r *http.Request) {
	a.handleStep(w, r, a.sessions.Next)
}

func (a *API) HandlePrevious(w http.ResponseWriter, r *http.Request) {
	a.handleStep(w, r, a.sessions.Previous)
}

func (a *API) HandlePause(w http.ResponseWriter, r *http.Request) {
	a.handleStep(w, r, a.sessions.Pause)
}

func (a *API) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	a.handleStep(w, r, a.sessions.Unpause)
}

func (a *API) HandleReset(w http.ResponseWriter, r *http.Request) {
	a.handleStep(w, r, func() error {
		a.sessions.Reset()
		return nil
	})
}

func (a *API) HandleSetIndex(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var request indexRequest
	if err := decodeBody(r, &request); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.sessions.SetIndex(request.Index); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessions.View(r.Context()))
}

func (a *API) HandleFinish(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	result, err := a.sessions.Finish()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleStep(w http.ResponseWriter, r *http.Request, step func() error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := step(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.sessions.View(r.Context()))
}
