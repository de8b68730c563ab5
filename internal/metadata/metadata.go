package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/informe-labs/informe/pkg/cache"
)

const cacheKey = "informe:warehouse:schema"

// System provides cached access to the warehouse schema snapshot.
type System interface {
	// Snapshot returns the current schema, serving from cache when possible.
	Snapshot(ctx context.Context) (*Schema, error)
	// Refresh discards the cached snapshot and reloads from the warehouse.
	Refresh(ctx context.Context) (*Schema, error)
}

type system struct {
	db     *sql.DB
	cache  cache.System
	logger *slog.Logger
}

// New creates a metadata system backed by the warehouse connection and
// the shared cache.
func New(db *sql.DB, c cache.System, logger *slog.Logger) System {
	return &system{
		db:     db,
		cache:  c,
		logger: logger.With("system", "metadata"),
	}
}

func (s *system) Snapshot(ctx context.Context) (*Schema, error) {
	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		var schema Schema
		if err := json.Unmarshal([]byte(cached), &schema); err == nil {
			return &schema, nil
		}
		s.logger.Warn("discarding unreadable cached schema")
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("schema cache read failed", "error", err)
	}

	return s.Refresh(ctx)
}

func (s *system) Refresh(ctx context.Context) (*Schema, error) {
	schema, err := loadSchema(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("load warehouse schema: %w", err)
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("serialize schema: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, string(data)); err != nil {
		// The snapshot is still usable without the cache.
		s.logger.Warn("schema cache write failed", "error", err)
	}

	s.logger.Info("warehouse schema refreshed", "tables", len(schema.Tables))
	return schema, nil
}
