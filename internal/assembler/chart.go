package assembler

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/informe-labs/informe/internal/workers"
)

const (
	chartWidth  = 1024
	chartHeight = 576

	// Series beyond this are aggregated into an "other" slice or
	// dropped to keep the rendering legible.
	maxChartPoints = 30
)

// renderChart draws the planned chart over the result set and returns
// the encoded PNG. Returns nil bytes when the plan is ChartNone.
func renderChart(plan *workers.ChartPlan, rows *workers.ResultSet) ([]byte, error) {
	if plan == nil || plan.Type == workers.ChartNone {
		return nil, nil
	}

	labels, values, err := extractSeries(plan, rows)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	switch plan.Type {
	case workers.ChartBar:
		err = renderBar(plan.Title, labels, values, &buf)
	case workers.ChartLine:
		err = renderLine(plan.Title, labels, values, &buf)
	case workers.ChartPie:
		err = renderPie(plan.Title, labels, values, &buf)
	default:
		return nil, fmt.Errorf("unsupported chart type %q", plan.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", plan.Type, err)
	}

	return buf.Bytes(), nil
}

// extractSeries pulls the labeled numeric series the plan names out of
// the result rows, capped at maxChartPoints.
func extractSeries(plan *workers.ChartPlan, rows *workers.ResultSet) ([]string, []float64, error) {
	if rows == nil || rows.RowCount() == 0 {
		return nil, nil, fmt.Errorf("no rows to chart")
	}

	count := min(rows.RowCount(), maxChartPoints)
	labels := make([]string, 0, count)
	values := make([]float64, 0, count)

	for _, row := range rows.Rows[:count] {
		value, ok := toFloat(row[plan.YColumn])
		if !ok {
			return nil, nil, fmt.Errorf("column %q is not numeric", plan.YColumn)
		}

		labels = append(labels, toLabel(row[plan.XColumn]))
		values = append(values, value)
	}

	return labels, values, nil
}

func renderBar(title string, labels []string, values []float64, buf *bytes.Buffer) error {
	bars := make([]chart.Value, len(values))
	for i := range values {
		bars[i] = chart.Value{Label: labels[i], Value: values[i]}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: max(20, chartWidth/(len(bars)*2)),
		Bars:     bars,
	}

	return graph.Render(chart.PNG, buf)
}

func renderLine(title string, labels []string, values []float64, buf *bytes.Buffer) error {
	xs := make([]float64, len(values))
	ticks := make([]chart.Tick, len(values))
	for i := range values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: labels[i]}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: values,
			},
		},
	}

	return graph.Render(chart.PNG, buf)
}

func renderPie(title string, labels []string, values []float64, buf *bytes.Buffer) error {
	slices := make([]chart.Value, 0, len(values))
	for i, v := range values {
		// Pie slices must be positive; skip zero or negative shares.
		if v > 0 {
			slices = append(slices, chart.Value{Label: labels[i], Value: v})
		}
	}

	if len(slices) == 0 {
		return fmt.Errorf("no positive values for pie chart")
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: slices,
	}

	return graph.Render(chart.PNG, buf)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toLabel(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
