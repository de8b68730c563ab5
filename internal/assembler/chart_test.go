package assembler

import (
	"testing"

	"github.com/informe-labs/informe/internal/workers"
)

func chartRows() *workers.ResultSet {
	return &workers.ResultSet{
		Columns: []string{"region", "total"},
		Rows: []map[string]any{
			{"region": "north", "total": 120.5},
			{"region": "south", "total": int64(80)},
			{"region": "east", "total": "42.25"},
		},
	}
}

func TestRenderChartNonePlan(t *testing.T) {
	png, err := renderChart(&workers.ChartPlan{Type: workers.ChartNone}, chartRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if png != nil {
		t.Error("none plan should produce no image")
	}
}

func TestRenderBarChart(t *testing.T) {
	plan := &workers.ChartPlan{
		Type:    workers.ChartBar,
		Title:   "Totals by Region",
		XColumn: "region",
		YColumn: "total",
	}

	png, err := renderChart(plan, chartRows())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty png output")
	}
}

func TestExtractSeriesCoercesValues(t *testing.T) {
	plan := &workers.ChartPlan{Type: workers.ChartBar, XColumn: "region", YColumn: "total"}

	labels, values, err := extractSeries(plan, chartRows())
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(labels) != 3 || labels[0] != "north" {
		t.Errorf("labels = %v", labels)
	}
	if values[0] != 120.5 || values[1] != 80 || values[2] != 42.25 {
		t.Errorf("values = %v", values)
	}
}

func TestExtractSeriesRejectsNonNumericColumn(t *testing.T) {
	plan := &workers.ChartPlan{Type: workers.ChartBar, XColumn: "total", YColumn: "region"}

	if _, _, err := extractSeries(plan, chartRows()); err == nil {
		t.Error("expected non-numeric column error")
	}
}

func TestExtractSeriesRejectsEmptyRows(t *testing.T) {
	plan := &workers.ChartPlan{Type: workers.ChartBar, XColumn: "region", YColumn: "total"}
	empty := &workers.ResultSet{Columns: []string{"region", "total"}}

	if _, _, err := extractSeries(plan, empty); err == nil {
		t.Error("expected empty rows error")
	}
}

func TestExtractSeriesCapsPoints(t *testing.T) {
	rows := &workers.ResultSet{Columns: []string{"x", "y"}}
	for i := range 100 {
		rows.Rows = append(rows.Rows, map[string]any{"x": i, "y": float64(i)})
	}

	plan := &workers.ChartPlan{Type: workers.ChartLine, XColumn: "x", YColumn: "y"}
	labels, _, err := extractSeries(plan, rows)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(labels) != maxChartPoints {
		t.Errorf("points = %d, want %d", len(labels), maxChartPoints)
	}
}
