package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-quiz/internal/metrics"
)

const maxLoggedBodyBytes = 512

// statusRecorder keeps the status and the first maxLogBytes of the body so
// failed requests can be logged with their error payload.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 {
		r.truncated = true
	}

	n, err := r.ResponseWriter.Write(p)
	r.bytesWritten += n
	return n, err
}

func withRequestLogging(mux *http.ServeMux, log logrus.FieldLogger, m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedBodyBytes,
		}

		mux.ServeHTTP(recorder, r)

		elapsed := time.Since(started)
		route := "unmatched"
		if _, pattern := mux.Handler(r); pattern != "" {
			route = pattern
		}
		m.ObserveRequest(r.Method, route, recorder.statusCode, elapsed)

		entry := log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.statusCode,
			"bytes":       recorder.bytesWritten,
			"duration_ms": elapsed.Milliseconds(),
		})
		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			entry.WithFields(logrus.Fields{
				"body":      recorder.logBody.String(),
				"truncated": recorder.truncated,
			}).Error("request failed")
		case recorder.statusCode >= http.StatusBadRequest:
			entry.WithField("body", recorder.logBody.String()).Info("request rejected")
		default:
			entry.Debug("request served")
		}
	})
}
