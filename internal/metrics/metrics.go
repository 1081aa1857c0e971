// Package metrics holds the Prometheus collectors shared by the quiz
// provider, the session manager and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trivia_quiz"

// Fetch outcomes.
const (
	OutcomeLive  = "live"
	OutcomeCache = "cache"
	OutcomeStale = "stale"
	OutcomeError = "error"
)

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	ProviderFetches  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	SessionScore     prometheus.Histogram
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a private registry.
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProviderFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "provider_fetches_total",
				Help:      "Question fetches by outcome",
			},
			[]string{"outcome"},
		),
		SessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "sessions_finished_total",
				Help:      "Finished quiz sessions",
			},
			[]string{"time_up"},
		),
		SessionScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "session_score_percent",
				Help:      "Score of finished sessions",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.ProviderFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFinish(scorePercent int, timeUp bool) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(strconv.FormatBool(timeUp)).Inc()
	m.SessionScore.Observe(float64(scorePercent))
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
