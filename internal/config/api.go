package config

import (
	"fmt"
	"os"

	"github.com/informe-labs/informe/pkg/middleware"
	"github.com/informe-labs/informe/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "INFORME_CORS_ENABLED",
	Origins:          "INFORME_CORS_ORIGINS",
	AllowedMethods:   "INFORME_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "INFORME_CORS_ALLOWED_HEADERS",
	AllowCredentials: "INFORME_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "INFORME_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "INFORME_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "INFORME_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("INFORME_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}
