package orchestrator_test

import (
	"testing"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/workers"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		approved      bool
		iteration     int
		maxIterations int
		expected      orchestrator.Decision
	}{
		{"approved first attempt", true, 0, 3, orchestrator.DecisionAdvance},
		{"approved at cap", true, 3, 3, orchestrator.DecisionAdvance},
		{"first rejection", false, 1, 3, orchestrator.DecisionRetry},
		{"second rejection", false, 2, 3, orchestrator.DecisionRetry},
		{"rejection at cap", false, 3, 3, orchestrator.DecisionAbort},
		{"rejection beyond cap", false, 4, 3, orchestrator.DecisionAbort},
		{"single iteration budget", false, 1, 1, orchestrator.DecisionAbort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := &workers.ReviewVerdict{Approved: tt.approved}
			got := orchestrator.Decide(verdict, tt.iteration, tt.maxIterations)
			if got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestDecideIsPure(t *testing.T) {
	verdict := &workers.ReviewVerdict{Approved: false, Feedback: "needs work"}

	for range 3 {
		if got := orchestrator.Decide(verdict, 2, 3); got != orchestrator.DecisionRetry {
			t.Fatalf("got %s, want retry on every call", got)
		}
	}

	if verdict.Feedback != "needs work" {
		t.Error("verdict mutated")
	}
}
