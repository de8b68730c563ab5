package workers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/informe-labs/informe/internal/prompts"
	"github.com/informe-labs/informe/pkg/formatting"
	"github.com/informe-labs/informe/pkg/sqlcheck"
)

type sqlResponse struct {
	SQLQuery        string   `json:"sql_query"`
	Explanation     string   `json:"explanation"`
	TablesUsed      []string `json:"tables_used"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// SQLGenWorker converts the natural language question into a validated
// SQL draft. Reviewer feedback from prior iterations is forwarded in the
// prompt so corrections target the reported problems.
type SQLGenWorker struct {
	completer Completer
	prompts   prompts.System
	retry     RetryConfig
	logger    *slog.Logger
}

// NewSQLGenWorker creates the SQL generation worker.
func NewSQLGenWorker(
	completer Completer,
	ps prompts.System,
	retry RetryConfig,
	logger *slog.Logger,
) *SQLGenWorker {
	return &SQLGenWorker{
		completer: completer,
		prompts:   ps,
		retry:     retry,
		logger:    logger.With("worker", RoleSQLGen),
	}
}

func (w *SQLGenWorker) Role() Role {
	return RoleSQLGen
}

func (w *SQLGenWorker) Invoke(ctx context.Context, wc Context) Result {
	sections := map[string]any{
		"question":      wc.Question,
		"schema":        wc.Schema.Schema,
		"relationships": wc.Schema.Relationships,
		"iteration":     wc.Iteration,
	}
	if wc.Feedback != "" {
		sections["reviewer_feedback"] = wc.Feedback
	}

	prompt, err := composePrompt(ctx, w.prompts, prompts.StageSQLGen, sections)
	if err != nil {
		return upstream(err.Error())
	}

	content, err := complete(ctx, w.completer, w.retry, prompt)
	if err != nil {
		return classify(ctx, err)
	}

	parsed, err := formatting.Parse[sqlResponse](content)
	if err != nil {
		return invalid("unparseable model response: " + err.Error())
	}

	if strings.TrimSpace(parsed.SQLQuery) == "" {
		return invalid("model response contains no sql_query")
	}

	check := sqlcheck.Validate(parsed.SQLQuery)
	if !check.Valid {
		return invalid("query rejected: " + strings.Join(check.Errors, "; "))
	}

	w.logger.Debug(
		"sql draft generated",
		"tables", parsed.TablesUsed,
		"confidence", parsed.ConfidenceScore,
	)

	return success(Result{SQL: &SQLDraft{
		Query:       parsed.SQLQuery,
		SafeQuery:   check.SafeQuery,
		Explanation: parsed.Explanation,
		TablesUsed:  parsed.TablesUsed,
		Confidence:  parsed.ConfidenceScore,
	}})
}
