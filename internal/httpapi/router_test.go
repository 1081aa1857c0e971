package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trivia-quiz/internal/metrics"
)

func TestStatusRecorderWriteTracksAndTruncates(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
		maxLogBytes:    10,
	}

	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	written, err := recorder.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("written bytes = %d, want %d", written, len(payload))
	}
	if recorder.bytesWritten != len(payload) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(payload))
	}
	if recorder.logBody.Len() != 10 {
		t.Fatalf("log body length = %d, want 10", recorder.logBody.Len())
	}
	if !recorder.truncated {
		t.Fatalf("expected truncated flag to be true")
	}
}

func TestStatusRecorderCapturesStatus(t *testing.T) {
	recorder := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK, maxLogBytes: 10}
	recorder.WriteHeader(http.StatusTeapot)
	if recorder.statusCode != http.StatusTeapot {
		t.Fatalf("statusCode = %d, want %d", recorder.statusCode, http.StatusTeapot)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	server := newTestServer(t)
	registry := prometheus.NewRegistry()
	m := metrics.New("router_test", registry)

	handler := NewRouter(Deps{
		Sessions:       server.manager,
		Categories:     fakeCategories{},
		History:        server.history,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /session status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	if body := rec.Body.String(); !containsAll(body, "trivia_quiz_router_test_requests_total", `path="/session"`) {
		t.Fatalf("metrics output missing request counter:\n%s", body)
	}
}

func TestRouterUnknownPathIs404(t *testing.T) {
	server := newTestServer(t)
	rec := server.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func containsAll(body string, needles ...string) bool {
	for _, needle := range needles {
		if !strings.Contains(body, needle) {
			return false
		}
	}
	return true
}
