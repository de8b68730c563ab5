package api

import (
	"log/slog"
	"net/http"

	"github.com/informe-labs/informe/internal/metadata"
	"github.com/informe-labs/informe/pkg/handlers"
	"github.com/informe-labs/informe/pkg/routes"
)

// schemaHandler exposes the cached warehouse schema snapshot.
type schemaHandler struct {
	metadata metadata.System
	logger   *slog.Logger
}

func newSchemaHandler(md metadata.System, logger *slog.Logger) *schemaHandler {
	return &schemaHandler{
		metadata: md,
		logger:   logger.With("handler", "schema"),
	}
}

func (h *schemaHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/schema",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.snapshot},
			{Method: "POST", Pattern: "/refresh", Handler: h.refresh},
		},
	}
}

func (h *schemaHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	schema, err := h.metadata.Snapshot(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, schema)
}

func (h *schemaHandler) refresh(w http.ResponseWriter, r *http.Request) {
	schema, err := h.metadata.Refresh(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, schema)
}
