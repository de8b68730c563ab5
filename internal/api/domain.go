package api

import (
	"github.com/informe-labs/informe/internal/assembler"
	"github.com/informe-labs/informe/internal/metadata"
	"github.com/informe-labs/informe/internal/orchestrator"
	"github.com/informe-labs/informe/internal/prompts"
	"github.com/informe-labs/informe/internal/reports"
	"github.com/informe-labs/informe/internal/workers"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Metadata metadata.System
	Prompts  prompts.System
	Reports  reports.System
}

// NewDomain creates all domain systems from the API runtime, wiring the
// worker pipeline into the report orchestrator.
func NewDomain(runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	metadataSystem := metadata.New(
		runtime.Warehouse.Connection(),
		runtime.Cache,
		runtime.Logger,
	)

	retry := workers.RetryConfig{
		MaxRetries: uint64(runtime.Workflow.WorkerRetries),
		BaseDelay:  runtime.Workflow.RetryBaseDelayDuration(),
	}

	orch := orchestrator.New(
		workers.NewSQLGenWorker(
			workers.NewCompleter(runtime.Agents.SQLGen),
			promptsSystem, retry, runtime.Logger,
		),
		workers.NewExecuteWorker(
			runtime.Warehouse.Connection(),
			runtime.Workflow.ExecuteTimeoutDuration(),
			retry, runtime.Logger,
		),
		workers.NewVisualizeWorker(
			workers.NewCompleter(runtime.Agents.Visualize),
			promptsSystem, retry, runtime.Logger,
		),
		workers.NewReviewWorker(
			workers.NewCompleter(runtime.Agents.Review),
			promptsSystem, retry, runtime.Logger,
		),
		assembler.New(runtime.Storage, runtime.Logger),
		orchestrator.Timeouts{
			Generate:  runtime.Workflow.GenerateTimeoutDuration(),
			Visualize: runtime.Workflow.VisualizeTimeoutDuration(),
			Review:    runtime.Workflow.ReviewTimeoutDuration(),
		},
		runtime.Metrics,
		runtime.Logger,
	)

	reportsSystem := reports.New(
		runtime.Database.Connection(),
		orch,
		metadataSystem,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
		runtime.Workflow.MaxIterations,
		runtime.Workflow.MaxConcurrentRuns,
	)

	return &Domain{
		Metadata: metadataSystem,
		Prompts:  promptsSystem,
		Reports:  reportsSystem,
	}
}
