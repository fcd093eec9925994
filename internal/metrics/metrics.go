// Package metrics defines Prometheus instrumentation for backend calls and sessions.
//
// Metrics are registered on construction against the supplied registerer so tests
// can use an isolated registry. The CLI uses prometheus.DefaultRegisterer and the
// session host exposes them at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "verdict"

// Operation labels
const (
	OpVerify   = "verify"
	OpDialogue = "dialogue"
)

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeMalformed = "malformed"
)

// Metrics holds all collectors
type Metrics struct {
	// RequestsTotal counts backend requests. Labels: op, outcome
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures backend round trips. Labels: op
	RequestDuration *prometheus.HistogramVec

	// SessionsActive tracks sessions held by the session host
	SessionsActive prometheus.Gauge

	// DialogueDiscarded counts dialogue results dropped because their verdict was superseded
	DialogueDiscarded prometheus.Counter
}

// New creates and registers all collectors
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Backend requests by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Backend request duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"op"},
		),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held by the session host",
		}),
		DialogueDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_discarded_total",
			Help:      "Dialogue results discarded because their verdict was no longer current",
		}),
	}
}

// Observe records one backend request. Safe on a nil receiver.
func (m *Metrics) Observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Discarded records a dropped dialogue result. Safe on a nil receiver.
func (m *Metrics) Discarded() {
	if m == nil {
		return
	}
	m.DialogueDiscarded.Inc()
}

// SessionOpened increments the active session gauge. Safe on a nil receiver.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// SessionClosed decrements the active session gauge. Safe on a nil receiver.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}
