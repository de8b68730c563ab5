package workers

import "github.com/informe-labs/informe/internal/metadata"

// SchemaContext packages the warehouse schema descriptions a worker
// needs to ground its prompt.
type SchemaContext struct {
	Schema        string   `json:"schema"`
	Relationships string   `json:"relationships"`
	Tables        []string `json:"tables"`
}

// NewSchemaContext renders a metadata snapshot into prompt-ready text.
func NewSchemaContext(s *metadata.Schema) *SchemaContext {
	return &SchemaContext{
		Schema:        s.Describe(),
		Relationships: s.DescribeRelationships(),
		Tables:        s.TableNames(),
	}
}

// SQLDraft is the SQL generation worker's payload. SafeQuery is the
// validated form with a LIMIT clause guaranteed present; it is the only
// form ever executed.
type SQLDraft struct {
	Query       string   `json:"query"`
	SafeQuery   string   `json:"safe_query"`
	Explanation string   `json:"explanation"`
	TablesUsed  []string `json:"tables_used"`
	Confidence  float64  `json:"confidence"`
}

// ResultSet holds the rows returned by executing a draft against the
// warehouse. Column order is preserved from the query.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RowCount returns the number of rows in the result set.
func (r *ResultSet) RowCount() int {
	return len(r.Rows)
}

// ChartType enumerates the supported visualization shapes.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
	ChartNone ChartType = "none"
)

var chartTypes = map[ChartType]struct{}{
	ChartBar:  {},
	ChartLine: {},
	ChartPie:  {},
	ChartNone: {},
}

// ValidChartType reports whether t is a supported chart type.
func ValidChartType(t ChartType) bool {
	_, ok := chartTypes[t]
	return ok
}

// ChartPlan is the visualization worker's payload: the chart choice for
// the result set, or ChartNone when the data is not chartable.
type ChartPlan struct {
	Type      ChartType `json:"type"`
	Title     string    `json:"title"`
	XColumn   string    `json:"x_column"`
	YColumn   string    `json:"y_column"`
	Reasoning string    `json:"reasoning"`
}

// ReviewVerdict is the review worker's payload.
type ReviewVerdict struct {
	Approved       bool               `json:"approved"`
	OverallScore   float64            `json:"overall_score"`
	Scores         map[string]float64 `json:"scores"`
	Feedback       string             `json:"feedback"`
	SpecificIssues []string           `json:"specific_issues"`
	Suggestions    []string           `json:"suggestions"`
}
