package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records payment, refund and redemption activity for the
// operational dashboards. Correctness never depends on these counters.
type LedgerMetrics struct {
	operations        *prometheus.CounterVec
	failures          *prometheus.CounterVec
	latency           *prometheus.HistogramVec
	pointsOutstanding prometheus.Gauge
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the lazily-initialised ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "travelledger",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Total ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "travelledger",
				Subsystem: "ledger",
				Name:      "failures_total",
				Help:      "Total ledger failures segmented by operation and error kind.",
			}, []string{"operation", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "travelledger",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			pointsOutstanding: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "travelledger",
				Subsystem: "loyalty",
				Name:      "points_outstanding",
				Help:      "Loyalty points currently held across all users.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.failures,
			ledgerRegistry.latency,
			ledgerRegistry.pointsOutstanding,
		)
	})
	return ledgerRegistry
}

// ObserveOperation records a completed ledger operation with its outcome.
func (m *LedgerMetrics) ObserveOperation(operation string, seconds float64, err error, kind string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.failures.WithLabelValues(operation, kind).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

// AddOutstandingPoints moves the outstanding-points gauge by delta, positive
// on accrual and negative on redemption.
func (m *LedgerMetrics) AddOutstandingPoints(delta float64) {
	if m == nil {
		return
	}
	m.pointsOutstanding.Add(delta)
}
