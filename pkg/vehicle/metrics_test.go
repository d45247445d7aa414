package vehicle

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterMetricsTwice(t *testing.T) {
	registry := prometheus.NewRegistry()
	if err := RegisterMetrics(registry); err != nil {
		t.Fatalf("Failed to register metrics: %s", err)
	}
	if err := RegisterMetrics(registry); err != nil {
		t.Errorf("Second registration should be a no-op, got %s", err)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeSkipped:  "skipped",
		OutcomeIssued:   "issued",
		OutcomeVerified: "verified",
		Outcome(9):      "Outcome(9)",
	}
	for outcome, expected := range tests {
		if outcome.String() != expected {
			t.Errorf("Expected %s but got %s", expected, outcome)
		}
	}
}
