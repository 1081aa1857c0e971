package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveFetchCountsByOutcome(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.ObserveFetch(OutcomeLive)
	m.ObserveFetch(OutcomeLive)
	m.ObserveFetch(OutcomeStale)

	require.Equal(t, 2.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues(OutcomeLive)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues(OutcomeStale)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues(OutcomeError)))
}

func TestObserveFinishAndRequest(t *testing.T) {
	m := New("test", nil)

	m.ObserveFinish(60, true)
	m.ObserveRequest("GET", "/session", 200, 15*time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionsFinished.WithLabelValues("true")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/session", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveFetch(OutcomeCache)
		m.ObserveFinish(100, false)
		m.ObserveRequest("POST", "/session/start", 201, time.Second)
	})
}
