package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	marketMetricsOnce sync.Once
	marketRegistry    *MarketMetrics
)

// MarketMetrics captures counters and latency histograms for the marketplace
// engine operations (settlement, distribution, treasury withdrawals).
type MarketMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// Market returns the lazily-initialised metrics registry for the marketplace
// engine.
func Market() *MarketMetrics {
	marketMetricsOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rack",
				Subsystem: "market",
				Name:      "requests_total",
				Help:      "Count of marketplace engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rack",
				Subsystem: "market",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for marketplace engine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rack",
				Subsystem: "market",
				Name:      "errors_total",
				Help:      "Count of marketplace engine failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
		}
		prometheus.MustRegister(
			marketRegistry.requests,
			marketRegistry.latency,
			marketRegistry.errors,
		)
	})
	return marketRegistry
}

// Observe records the execution metrics for a marketplace engine operation.
func (m *MarketMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		reason := strings.TrimSpace(err.Error())
		if reason == "" {
			reason = "unknown"
		}
		m.errors.WithLabelValues(op, reason).Inc()
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}
