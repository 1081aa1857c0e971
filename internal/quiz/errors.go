package quiz

import (
	"github.com/pkg/errors"

	"trivia-quiz/internal/opentdb"
	"trivia-quiz/internal/storage"
)

// Re-exported so callers above the provider do not import opentdb.
var (
	ErrInsufficientQuestions = opentdb.ErrNoResults
	ErrInvalidFilter         = opentdb.ErrInvalidParameter
	ErrRateLimited           = opentdb.ErrRateLimited
	ErrSourceUnavailable     = opentdb.ErrTransport
)

// IsSemantic reports whether err is a failure code from the question source
// rather than a failure to reach it.
func IsSemantic(err error) bool {
	for _, target := range []error{
		opentdb.ErrNoResults,
		opentdb.ErrInvalidParameter,
		opentdb.ErrTokenNotFound,
		opentdb.ErrTokenEmpty,
		opentdb.ErrRateLimited,
		opentdb.ErrUnknownResponse,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// UserMessage is the text shown to a player for a provider failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, opentdb.ErrNoResults):
		return "Not enough questions for this filter. Try another category or difficulty."
	case errors.Is(err, opentdb.ErrInvalidParameter):
		return "Invalid quiz settings. Please check the selected options."
	case errors.Is(err, opentdb.ErrTokenNotFound), errors.Is(err, opentdb.ErrTokenEmpty):
		return "The question session expired. Please start again."
	case errors.Is(err, opentdb.ErrRateLimited):
		return "Too many requests. Wait a few seconds and try again."
	case errors.Is(err, opentdb.ErrTransport):
		return "Could not reach the question server. Check your connection and try again."
	case errors.Is(err, opentdb.ErrUnknownResponse):
		return "The question server returned an unexpected response."
	default:
		return "Something went wrong. Please try again."
	}
}

func isCorrupt(err error) bool {
	return errors.Is(err, storage.ErrCorrupt)
}
