package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records counters for user lifecycle transitions and the
// record reassignments they trigger.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	reassigned  prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_transitions_total",
		Help: "User lifecycle transitions by action and outcome.",
	}, []string{"action", "outcome"})
	reassigned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reassigned_records_total",
		Help: "Owned records moved between users by lifecycle operations.",
	})
	reg.MustRegister(transitions, reassigned)
	return &LifecycleMetrics{
		transitions: transitions,
		reassigned:  reassigned,
	}
}

// IncTransition increments the transition counter for the named action.
func (m *LifecycleMetrics) IncTransition(action string, success bool) {
	if m == nil || m.transitions == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.transitions.WithLabelValues(normalizeLabel(action), outcome).Inc()
}

// AddReassigned records how many owned records a transition moved.
func (m *LifecycleMetrics) AddReassigned(count int64) {
	if m == nil || m.reassigned == nil {
		return
	}
	if count <= 0 {
		return
	}
	m.reassigned.Add(float64(count))
}

func normalizeLabel(action string) string {
	if action == "" {
		return "unknown"
	}
	return action
}
