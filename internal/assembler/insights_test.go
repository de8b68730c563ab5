package assembler

import (
	"strings"
	"testing"

	"github.com/informe-labs/informe/internal/workers"
)

func TestInsightsEmptyResultSet(t *testing.T) {
	got := insights(&workers.ResultSet{})

	if len(got) != 1 || !strings.Contains(got[0], "No rows") {
		t.Errorf("insights = %v", got)
	}
}

func TestInsightsSingleRecord(t *testing.T) {
	rows := &workers.ResultSet{
		Columns: []string{"name"},
		Rows:    []map[string]any{{"name": "acme"}},
	}

	got := insights(rows)
	if !strings.Contains(got[0], "1 matching record") {
		t.Errorf("insights = %v", got)
	}
}

func TestInsightsNumericStats(t *testing.T) {
	rows := &workers.ResultSet{
		Columns: []string{"region", "total"},
		Rows: []map[string]any{
			{"region": "north", "total": 10.0},
			{"region": "south", "total": 30.0},
			{"region": "east", "total": nil},
		},
	}

	got := insights(rows)
	if len(got) != 2 {
		t.Fatalf("insights = %v", got)
	}

	stats := got[1]
	for _, fragment := range []string{"total", "average 20.00", "10.00", "30.00"} {
		if !strings.Contains(stats, fragment) {
			t.Errorf("stats %q missing %q", stats, fragment)
		}
	}
}

func TestInsightsCapped(t *testing.T) {
	rows := &workers.ResultSet{
		Columns: []string{"a", "b", "c", "d", "e"},
		Rows: []map[string]any{
			{"a": 1.0, "b": 2.0, "c": 3.0, "d": 4.0, "e": 5.0},
		},
	}

	if got := insights(rows); len(got) > maxInsights {
		t.Errorf("insights = %d entries, cap is %d", len(got), maxInsights)
	}
}
