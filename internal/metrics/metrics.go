// Package metrics holds the Prometheus instruments for reconciliation,
// classification and extraction calls. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tally"

// Reconciliation outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeGated      = "gated"
	OutcomeParseError = "parse_error"
	OutcomeFailed     = "failed"
)

type Metrics struct {
	reconcileCycles    *prometheus.CounterVec
	classifyCalls      *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	notifyFailures     prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reconcileCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_cycles_total",
				Help:      "Reconciliation cycles by outcome (committed, gated, parse_error, failed).",
			},
			[]string{"outcome"},
		),
		classifyCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classify_calls_total",
				Help:      "Classification calls by schema and outcome (found, not_found, error).",
			},
			[]string{"schema", "outcome"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Latency of extraction service calls.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"provider", "status"},
		),
		notifyFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notify_failures_total",
				Help:      "Committed snapshots that could not be published to subscribers.",
			},
		),
	}

	reg.MustRegister(m.reconcileCycles, m.classifyCalls, m.extractionDuration, m.notifyFailures)
	return m
}

func (m *Metrics) ReconcileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reconcileCycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClassifyOutcome(schema, outcome string) {
	if m == nil {
		return
	}
	m.classifyCalls.WithLabelValues(schema, outcome).Inc()
}

func (m *Metrics) ObserveExtraction(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.extractionDuration.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
