package api

import (
	"github.com/informe-labs/informe/internal/config"
	"github.com/informe-labs/informe/internal/infrastructure"
	"github.com/informe-labs/informe/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Workflow   config.WorkflowConfig
	Agents     config.AgentsConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Warehouse: infra.Warehouse,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
			Registry:  infra.Registry,
			Metrics:   infra.Metrics,
		},
		Pagination: cfg.API.Pagination,
		Workflow:   cfg.Workflow,
		Agents:     cfg.Agents,
	}
}
