package api

import (
	"net/http"

	"github.com/informe-labs/informe/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Reports.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		newSchemaHandler(domain.Metadata, runtime.Logger).routes(),
	)
}
