package assembler

import (
	"fmt"

	"github.com/informe-labs/informe/internal/workers"
)

const maxInsights = 5

// insights derives short observations about the result set for the
// report's highlights section.
func insights(rows *workers.ResultSet) []string {
	if rows == nil || rows.RowCount() == 0 {
		return []string{"No rows matched the query criteria"}
	}

	out := make([]string, 0, maxInsights)

	if rows.RowCount() == 1 {
		out = append(out, "Found 1 matching record")
	} else {
		out = append(out, fmt.Sprintf("Found %d matching records", rows.RowCount()))
	}

	for _, col := range numericColumns(rows) {
		if len(out) >= maxInsights {
			break
		}

		minVal, maxVal, avg, n := columnStats(rows, col)
		if n == 0 {
			continue
		}

		out = append(out, fmt.Sprintf(
			"%s: average %.2f, range %.2f to %.2f", col, avg, minVal, maxVal,
		))
	}

	return out
}

// numericColumns returns, in stable order, the columns whose first
// non-nil value is numeric. Capped at three to keep the section short.
func numericColumns(rows *workers.ResultSet) []string {
	var cols []string

	for _, col := range rows.Columns {
		for _, row := range rows.Rows {
			v := row[col]
			if v == nil {
				continue
			}
			if _, ok := toFloat(v); ok {
				cols = append(cols, col)
			}
			break
		}
	}

	if len(cols) > 3 {
		cols = cols[:3]
	}

	return cols
}

func columnStats(rows *workers.ResultSet, col string) (minVal, maxVal, avg float64, n int) {
	var sum float64

	for _, row := range rows.Rows {
		v, ok := toFloat(row[col])
		if !ok {
			continue
		}

		if n == 0 || v < minVal {
			minVal = v
		}
		if n == 0 || v > maxVal {
			maxVal = v
		}

		sum += v
		n++
	}

	if n > 0 {
		avg = sum / float64(n)
	}

	return minVal, maxVal, avg, n
}
