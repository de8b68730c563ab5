// Package assembler renders the final report artifact for an approved
// run: the chart image, the PDF document, and their blob storage keys.
package assembler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/pkg/storage"
)

// System builds and stores report artifacts.
type System struct {
	storage storage.System
	logger  *slog.Logger
}

// New creates an assembler backed by the given blob storage.
func New(st storage.System, logger *slog.Logger) *System {
	return &System{
		storage: st,
		logger:  logger.With("system", "assembler"),
	}
}

// Assemble renders the run's chart and PDF, verifies the document, and
// uploads both. Any failure here is terminal for the run.
func (s *System) Assemble(ctx context.Context, run *orchestrator.Run) (*orchestrator.Artifact, error) {
	chartPNG, err := renderChart(run.Chart, run.Rows)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	doc, err := buildPDF(run, chartPNG)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	// Structural check before the document leaves the process: a PDF
	// fpdf produced but pdfcpu cannot parse should never be stored.
	pages, err := api.PageCount(bytes.NewReader(doc), nil)
	if err != nil {
		return nil, fmt.Errorf("validate report: %w", err)
	}

	artifact := &orchestrator.Artifact{
		PDFKey:    pdfKey(run),
		PageCount: pages,
		SizeBytes: int64(len(doc)),
	}

	if len(chartPNG) > 0 {
		artifact.ChartKey = chartKey(run)

		if err := s.storage.UploadBytes(ctx, artifact.ChartKey, chartPNG, "image/png"); err != nil {
			return nil, fmt.Errorf("store chart: %w", err)
		}
	}

	if err := s.storage.UploadBytes(ctx, artifact.PDFKey, doc, "application/pdf"); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.logger.Info(
		"report assembled",
		"run", run.ID,
		"pages", pages,
		"bytes", artifact.SizeBytes,
		"chart", artifact.ChartKey != "",
	)

	return artifact, nil
}

func pdfKey(run *orchestrator.Run) string {
	return fmt.Sprintf("reports/%s/report.pdf", run.ID)
}

func chartKey(run *orchestrator.Run) string {
	return fmt.Sprintf("reports/%s/chart.png", run.ID)
}
