package assembler

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/workers"
)

const (
	maxTableRows    = 20
	maxTableColumns = 6
)

// buildPDF renders the full report document for a run that passed
// review. chartPNG may be nil when the plan was ChartNone.
func buildPDF(run *orchestrator.Run, chartPNG []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Data Analysis Report", true)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Page %d of {nb} - generated automatically, human validation required", pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	writeHeader(pdf)
	writeMetadata(pdf, run)
	writeQuery(pdf, run.SQL)
	writeChart(pdf, run.Chart, chartPNG)
	writeData(pdf, run.Rows)
	writeHighlights(pdf, insights(run.Rows))
	writeDisclaimer(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 12, "Data Analysis Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		"", 1, "L", false, 0, "")

	pdf.SetDrawColor(52, 152, 219)
	pdf.SetLineWidth(0.6)
	left, y := pdf.GetX(), pdf.GetY()+2
	pdf.Line(left, y, 200, y)
	pdf.Ln(8)
}

func writeMetadata(pdf *fpdf.Fpdf, run *orchestrator.Run) {
	status := "Requires revision"
	score := 0.0

	if run.Verdict != nil {
		score = run.Verdict.OverallScore
		if run.Verdict.Approved {
			status = "Approved"
		}
	}

	rowCount := 0
	if run.Rows != nil {
		rowCount = run.Rows.RowCount()
	}

	entries := [][2]string{
		{"Question", run.Question},
	}
	if excerpt := profileExcerpt(run.Profile); excerpt != "" {
		entries = append(entries, [2]string{"Requested for", excerpt})
	}
	entries = append(entries,
		[2]string{"Total records", fmt.Sprintf("%d", rowCount)},
		[2]string{"QA score", fmt.Sprintf("%.1f/10", score)},
		[2]string{"Status", status},
		[2]string{"Review iterations", fmt.Sprintf("%d", run.Iteration)},
	)

	pdf.SetFillColor(248, 249, 250)
	pdf.SetTextColor(73, 80, 87)

	for _, entry := range entries {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 8, entry[0], "B", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 8, entry[1], "B", "L", true)
	}

	pdf.Ln(6)
}

func writeQuery(pdf *fpdf.Fpdf, draft *workers.SQLDraft) {
	if draft == nil {
		return
	}

	sectionTitle(pdf, "Generated SQL Query")

	pdf.SetFillColor(241, 242, 246)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 5, draft.SafeQuery, "", "L", true)
	pdf.Ln(3)

	if draft.Explanation != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.MultiCell(0, 5, "Explanation: "+draft.Explanation, "", "L", false)
	}

	pdf.Ln(6)
}

func writeChart(pdf *fpdf.Fpdf, plan *workers.ChartPlan, png []byte) {
	if plan == nil || plan.Type == workers.ChartNone || len(png) == 0 {
		return
	}

	sectionTitle(pdf, "Visualization")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(png))
	pdf.ImageOptions("chart", 15, pdf.GetY(), 180, 0, true, opts, 0, "")

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, plan.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func writeData(pdf *fpdf.Fpdf, rows *workers.ResultSet) {
	if rows == nil || rows.RowCount() == 0 {
		return
	}

	sectionTitle(pdf, "Data")

	cols := rows.Columns
	if len(cols) > maxTableColumns {
		cols = cols[:maxTableColumns]
	}

	width := 190.0 / float64(len(cols))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(52, 152, 219)
	pdf.SetTextColor(255, 255, 255)

	for _, col := range cols {
		pdf.CellFormat(width, 8, truncate(col, 24), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(60, 60, 60)

	shown := min(rows.RowCount(), maxTableRows)
	for i, row := range rows.Rows[:shown] {
		fill := i%2 == 1
		pdf.SetFillColor(248, 249, 250)

		for _, col := range cols {
			pdf.CellFormat(width, 7, truncate(toLabel(row[col]), 28), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if rows.RowCount() > shown {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 6,
			fmt.Sprintf("Showing first %d of %d rows", shown, rows.RowCount()),
			"", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
}

func writeHighlights(pdf *fpdf.Fpdf, items []string) {
	if len(items) == 0 {
		return
	}

	sectionTitle(pdf, "Highlights")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(39, 96, 60)
	pdf.SetFillColor(232, 245, 232)

	for _, item := range items {
		pdf.MultiCell(0, 7, "- "+item, "", "L", true)
	}

	pdf.Ln(6)
}

func writeDisclaimer(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(255, 243, 205)
	pdf.SetTextColor(133, 100, 4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 8, "Important notice", "LTR", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5,
		"This report was generated automatically. Data and analysis should be "+
			"validated by a human analyst before being used for critical decisions.",
		"LBR", "L", true)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 10, title, "B", 1, "L", false, 0, "")
	pdf.Ln(3)
}

// profileExcerpt flattens the requester profile into one display line,
// keys in stable order.
func profileExcerpt(profile map[string]string) string {
	if len(profile) == 0 {
		return ""
	}

	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+profile[k])
	}
	return strings.Join(parts, "; ")
}

// truncate shortens s to n runes, never splitting a multi-byte sequence.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
