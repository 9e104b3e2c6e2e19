package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// EvaluationMetrics observes the eligibility pipeline. It satisfies ports.EvaluationObserver.
type EvaluationMetrics struct {
	service string

	decisionsTotal    *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	reasoningFailures *prometheus.CounterVec
}

func newEvaluationMetrics(service string, registerer prometheus.Registerer) *EvaluationMetrics {
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "decisions_total",
			Help:      "Eligibility decisions by outcome.",
		},
		[]string{"service", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "End-to-end evaluation duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)
	reasoningFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "reasoning_failures_total",
			Help:      "Reasoning provider failures replaced by marked narrative.",
		},
		[]string{"service", "provider"},
	)

	registerer.MustRegister(decisionsTotal, duration, reasoningFailures)

	return &EvaluationMetrics{
		service:           service,
		decisionsTotal:    decisionsTotal,
		duration:          duration,
		reasoningFailures: reasoningFailures,
	}
}

func (m *EvaluationMetrics) ObserveEvaluation(outcome domain.Outcome, duration time.Duration) {
	m.decisionsTotal.WithLabelValues(m.service, string(outcome)).Inc()
	if duration >= 0 {
		m.duration.WithLabelValues(m.service).Observe(duration.Seconds())
	}
}

func (m *EvaluationMetrics) ObserveReasoningFailure(provider string) {
	if provider == "" {
		provider = "unknown"
	}
	m.reasoningFailures.WithLabelValues(m.service, provider).Inc()
}
