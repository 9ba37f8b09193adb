package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records the outcome of membership workflow operations.
type WorkflowMetrics struct {
	duration *prometheus.HistogramVec
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_duration_seconds",
		Help:    "Duration of membership workflow operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_accepted",
		Help: "Workflow operations that passed every precondition.",
	}, []string{"operation"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_rejected",
		Help: "Workflow operations refused by a precondition.",
	}, []string{"operation", "reason"})
	reg.MustRegister(duration, accepted, rejected)
	return &WorkflowMetrics{
		duration: duration,
		accepted: accepted,
		rejected: rejected,
	}
}

// ObserveDuration records the duration for the named operation.
func (w *WorkflowMetrics) ObserveDuration(operation string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncAccepted increments the accepted counter for the named operation.
func (w *WorkflowMetrics) IncAccepted(operation string) {
	if w == nil || w.accepted == nil {
		return
	}
	w.accepted.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRejected increments the rejected counter with the failed precondition.
func (w *WorkflowMetrics) IncRejected(operation, reason string) {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.WithLabelValues(normalizeLabel(operation), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
