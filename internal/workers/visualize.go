package workers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/informe-labs/informe/internal/prompts"
	"github.com/informe-labs/informe/pkg/formatting"
)

type chartResponse struct {
	ChartType string `json:"chart_type"`
	Title     string `json:"title"`
	XColumn   string `json:"x_column"`
	YColumn   string `json:"y_column"`
	Reasoning string `json:"reasoning"`
}

// VisualizeWorker chooses a chart for the executed result set. The model
// sees a profile of the data rather than the full rows: column names,
// row count, and a small sample.
type VisualizeWorker struct {
	completer Completer
	prompts   prompts.System
	retry     RetryConfig
	logger    *slog.Logger
}

// NewVisualizeWorker creates the visualization planning worker.
func NewVisualizeWorker(
	completer Completer,
	ps prompts.System,
	retry RetryConfig,
	logger *slog.Logger,
) *VisualizeWorker {
	return &VisualizeWorker{
		completer: completer,
		prompts:   ps,
		retry:     retry,
		logger:    logger.With("worker", RoleVisualize),
	}
}

func (w *VisualizeWorker) Role() Role {
	return RoleVisualize
}

const sampleRows = 5

func (w *VisualizeWorker) Invoke(ctx context.Context, wc Context) Result {
	if wc.Rows == nil {
		return invalid("no result set to visualize")
	}

	sections := map[string]any{
		"question":  wc.Question,
		"sql":       wc.SQL.Query,
		"columns":   wc.Rows.Columns,
		"row_count": wc.Rows.RowCount(),
		"sample":    wc.Rows.Rows[:min(sampleRows, wc.Rows.RowCount())],
	}
	if wc.Feedback != "" {
		sections["reviewer_feedback"] = wc.Feedback
	}

	prompt, err := composePrompt(ctx, w.prompts, prompts.StageVisualize, sections)
	if err != nil {
		return upstream(err.Error())
	}

	content, err := complete(ctx, w.completer, w.retry, prompt)
	if err != nil {
		return classify(ctx, err)
	}

	parsed, err := formatting.Parse[chartResponse](content)
	if err != nil {
		return invalid("unparseable model response: " + err.Error())
	}

	plan := &ChartPlan{
		Type:      ChartType(parsed.ChartType),
		Title:     parsed.Title,
		XColumn:   parsed.XColumn,
		YColumn:   parsed.YColumn,
		Reasoning: parsed.Reasoning,
	}

	if detail := validatePlan(plan, wc.Rows); detail != "" {
		return invalid(detail)
	}

	w.logger.Debug("chart planned", "type", plan.Type, "title", plan.Title)
	return success(Result{Chart: plan})
}

func validatePlan(plan *ChartPlan, rows *ResultSet) string {
	if !ValidChartType(plan.Type) {
		return fmt.Sprintf("unsupported chart type %q", plan.Type)
	}

	if plan.Type == ChartNone {
		return ""
	}

	if plan.Title == "" {
		return "chart title is required"
	}
	if !slices.Contains(rows.Columns, plan.XColumn) {
		return fmt.Sprintf("x column %q is not in the result set", plan.XColumn)
	}
	if !slices.Contains(rows.Columns, plan.YColumn) {
		return fmt.Sprintf("y column %q is not in the result set", plan.YColumn)
	}
	if rows.RowCount() == 0 {
		return "cannot chart an empty result set"
	}

	return ""
}
