package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLifecycleMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.IncTransition("DEACTIVATE", true)
	m.IncTransition("DEACTIVATE", true)
	m.IncTransition("DEACTIVATE", false)
	m.AddReassigned(10)
	m.AddReassigned(-5)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("DEACTIVATE", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("DEACTIVATE", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.reassigned); got != 10 {
		t.Fatalf("expected 10 reassigned, got %v", got)
	}
}

func TestLifecycleMetricsNilSafe(t *testing.T) {
	var m *LifecycleMetrics
	m.IncTransition("ACTIVATE", true)
	m.AddReassigned(1)

	empty := NewLifecycleMetrics(nil)
	empty.IncTransition("", false)
	empty.AddReassigned(3)
}
