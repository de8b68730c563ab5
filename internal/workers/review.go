package workers

import (
	"context"
	"log/slog"

	"github.com/informe-labs/informe/internal/prompts"
	"github.com/informe-labs/informe/pkg/formatting"
)

type reviewResponse struct {
	Approved       bool               `json:"approved"`
	OverallScore   float64            `json:"overall_score"`
	Scores         map[string]float64 `json:"scores"`
	Feedback       string             `json:"feedback"`
	SpecificIssues []string           `json:"specific_issues"`
	Suggestions    []string           `json:"suggestions"`
}

// ReviewWorker assesses the assembled report draft: question, SQL,
// result summary, and chart plan. Its verdict drives the correction loop.
type ReviewWorker struct {
	completer Completer
	prompts   prompts.System
	retry     RetryConfig
	logger    *slog.Logger
}

// NewReviewWorker creates the quality review worker.
func NewReviewWorker(
	completer Completer,
	ps prompts.System,
	retry RetryConfig,
	logger *slog.Logger,
) *ReviewWorker {
	return &ReviewWorker{
		completer: completer,
		prompts:   ps,
		retry:     retry,
		logger:    logger.With("worker", RoleReview),
	}
}

func (w *ReviewWorker) Role() Role {
	return RoleReview
}

func (w *ReviewWorker) Invoke(ctx context.Context, wc Context) Result {
	if wc.SQL == nil || wc.Rows == nil || wc.Chart == nil {
		return invalid("incomplete report draft for review")
	}

	sections := map[string]any{
		"question":    wc.Question,
		"sql":         wc.SQL.Query,
		"explanation": wc.SQL.Explanation,
		"columns":     wc.Rows.Columns,
		"row_count":   wc.Rows.RowCount(),
		"sample":      wc.Rows.Rows[:min(sampleRows, wc.Rows.RowCount())],
		"chart":       wc.Chart,
		"iteration":   wc.Iteration,
	}

	// The requester profile shapes what "coherent" means for this reader.
	if len(wc.Profile) > 0 {
		sections["user_profile"] = wc.Profile
	}

	prompt, err := composePrompt(ctx, w.prompts, prompts.StageReview, sections)
	if err != nil {
		return upstream(err.Error())
	}

	content, err := complete(ctx, w.completer, w.retry, prompt)
	if err != nil {
		return classify(ctx, err)
	}

	parsed, err := formatting.Parse[reviewResponse](content)
	if err != nil {
		return invalid("unparseable model response: " + err.Error())
	}

	if !parsed.Approved && parsed.Feedback == "" {
		return invalid("rejection verdict carries no feedback")
	}

	w.logger.Debug(
		"review verdict",
		"approved", parsed.Approved,
		"score", parsed.OverallScore,
	)

	return success(Result{Review: &ReviewVerdict{
		Approved:       parsed.Approved,
		OverallScore:   parsed.OverallScore,
		Scores:         parsed.Scores,
		Feedback:       parsed.Feedback,
		SpecificIssues: parsed.SpecificIssues,
		Suggestions:    parsed.Suggestions,
	}})
}
