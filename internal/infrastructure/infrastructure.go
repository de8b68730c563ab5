// Package infrastructure provides core service initialization for
// application startup. It assembles the shared dependencies the domain
// systems require: logging, both database connections, blob storage,
// the schema cache, and metrics.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/informe-labs/informe/internal/config"
	"github.com/informe-labs/informe/pkg/cache"
	"github.com/informe-labs/informe/pkg/database"
	"github.com/informe-labs/informe/pkg/lifecycle"
	"github.com/informe-labs/informe/pkg/metrics"
	"github.com/informe-labs/informe/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle
// coordination, logging, database access, storage, cache, and metrics.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Warehouse database.System
	Storage   storage.System
	Cache     cache.System
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, "app", logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	warehouse, err := database.New(&cfg.Warehouse, "warehouse", logger)
	if err != nil {
		return nil, fmt.Errorf("warehouse init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Warehouse: warehouse,
		Storage:   store,
		Cache:     cache.New(&cfg.Cache, logger),
		Registry:  registry,
		Metrics:   metrics.New(registry),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle
// coordinator for startup and shutdown sequencing.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Warehouse.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("warehouse start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	return nil
}
