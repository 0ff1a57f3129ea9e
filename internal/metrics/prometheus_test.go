package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TranscriptionOutcomes.WithLabelValues("ok").Inc()
	m.ActiveListeningSessions.Inc()

	if got := testutil.ToFloat64(m.TranscriptionOutcomes.WithLabelValues("ok")); got != 1 {
		t.Fatalf("unexpected counter value: %v", got)
	}
	count, err := testutil.GatherAndCount(reg, "firassist_listening_sessions_active")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected gauge to be registered, got %d series", count)
	}
}

func TestNewNopDoesNotCollide(t *testing.T) {
	a := NewNop()
	b := NewNop()
	if a == b {
		t.Fatal("expected distinct instances")
	}
}
