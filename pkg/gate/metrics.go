package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the gating engine. A nil
// *Metrics is valid and records nothing, which keeps tests free of
// global-registry collisions.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	blockReasons  *prometheus.CounterVec
	evalDuration  *prometheus.HistogramVec
	inboundChecks prometheus.Counter
}

// NewMetrics creates a Metrics instance registered on the default
// Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers on a caller-supplied registry.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_gate_evaluations_total",
				Help: "Total number of outbound gate evaluations",
			},
			[]string{"message_type", "result"},
		),

		blockReasons: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_gate_blocks_total",
				Help: "Total number of gate blocks by reason code",
			},
			[]string{"reason"},
		),

		evalDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_gate_evaluation_duration_seconds",
				Help:    "Duration of outbound gate evaluations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"message_type"},
		),

		inboundChecks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gatekeeper_gate_inbound_checks_total",
				Help: "Total number of inbound evaluations (always allowed)",
			},
		),
	}
}

// RecordEvaluation records one outbound evaluation outcome.
func (m *Metrics) RecordEvaluation(messageType MessageType, allowed bool, seconds float64) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.evaluations.WithLabelValues(string(messageType), result).Inc()
	m.evalDuration.WithLabelValues(string(messageType)).Observe(seconds)
}

// RecordBlock records one blocking reason code.
func (m *Metrics) RecordBlock(reason ReasonCode) {
	if m == nil {
		return
	}
	m.blockReasons.WithLabelValues(string(reason)).Inc()
}

// RecordInbound records one inbound evaluation.
func (m *Metrics) RecordInbound() {
	if m == nil {
		return
	}
	m.inboundChecks.Inc()
}
