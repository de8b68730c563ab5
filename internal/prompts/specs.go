package prompts

const sqlgenSpec = `Respond with a JSON object matching this exact structure:

{
  "sql_query": "SELECT ... FROM ... WHERE ...",
  "explanation": "<what the query does and why it answers the question>",
  "tables_used": ["<table1>", "<table2>"],
  "confidence_score": 0.95
}

Field constraints:
- sql_query: A single SELECT statement. No INSERT, UPDATE, DELETE, DDL,
  or multiple statements. Only tables and columns from the provided schema.
- explanation: Brief prose description of the query logic, suitable for
  inclusion in the final report.
- tables_used: Every table referenced by the query, without aliases.
- confidence_score: Your confidence from 0.0 to 1.0 that the query
  answers the question as asked.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never invent tables or columns that do not appear in the schema`

const visualizeSpec = `Respond with a JSON object matching this exact structure:

{
  "chart_type": "bar",
  "title": "<descriptive chart title>",
  "x_column": "<column name>",
  "y_column": "<column name>",
  "reasoning": "<why this chart type fits the data>"
}

Field constraints:
- chart_type: One of bar, line, pie, none.
- title: Descriptive title rendered above the chart.
- x_column: Result column providing labels or the horizontal axis.
  Empty string when chart_type is none.
- y_column: Numeric result column providing values. Empty string when
  chart_type is none.
- reasoning: Brief justification of the choice.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Column names must match the result columns exactly`

const reviewSpec = `Respond with a JSON object matching this exact structure:

{
  "approved": true,
  "overall_score": 8.5,
  "scores": {
    "coherence": 9.0,
    "completeness": 8.0,
    "data_quality": 8.5,
    "visualization": 8.5
  },
  "feedback": "<detailed assessment of the report>",
  "specific_issues": ["<issue>"],
  "suggestions": ["<suggestion>"]
}

Field constraints:
- approved: Whether the report may be delivered as-is.
- overall_score: 1.0 to 10.0. Scores of 7.0 and above indicate an
  approvable report; below 5.0 indicates fundamental problems.
- scores: Each dimension scored 1.0 to 10.0.
- feedback: Actionable prose directed at the SQL author. Required when
  approved is false.
- specific_issues: Concrete problems found, empty array when none.
- suggestions: Concrete improvements, empty array when none.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never approve a report whose SQL does not address the question`

var specs = map[Stage]string{
	StageSQLGen:    sqlgenSpec,
	StageVisualize: visualizeSpec,
	StageReview:    reviewSpec,
}

// Spec returns the immutable response specification for a worker stage.
// Specs define wire formats and are not overridable. Returns
// ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
