package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/informe-labs/informe/pkg/cache"
	"github.com/informe-labs/informe/pkg/database"
	"github.com/informe-labs/informe/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvInformeEnv             = "INFORME_ENV"
	EnvInformeShutdownTimeout = "INFORME_SHUTDOWN_TIMEOUT"
	EnvInformeVersion         = "INFORME_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "INFORME_DB_HOST",
	Port:            "INFORME_DB_PORT",
	Name:            "INFORME_DB_NAME",
	User:            "INFORME_DB_USER",
	Password:        "INFORME_DB_PASSWORD",
	SSLMode:         "INFORME_DB_SSL_MODE",
	MaxOpenConns:    "INFORME_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "INFORME_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "INFORME_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "INFORME_DB_CONN_TIMEOUT",
}

var warehouseEnv = &database.Env{
	Host:            "INFORME_WAREHOUSE_HOST",
	Port:            "INFORME_WAREHOUSE_PORT",
	Name:            "INFORME_WAREHOUSE_NAME",
	User:            "INFORME_WAREHOUSE_USER",
	Password:        "INFORME_WAREHOUSE_PASSWORD",
	SSLMode:         "INFORME_WAREHOUSE_SSL_MODE",
	MaxOpenConns:    "INFORME_WAREHOUSE_MAX_OPEN_CONNS",
	MaxIdleConns:    "INFORME_WAREHOUSE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "INFORME_WAREHOUSE_CONN_MAX_LIFETIME",
	ConnTimeout:     "INFORME_WAREHOUSE_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "INFORME_STORAGE_CONTAINER_NAME",
	ConnectionString: "INFORME_STORAGE_CONNECTION_STRING",
}

var cacheEnv = &cache.Env{
	Addr:     "INFORME_CACHE_ADDR",
	Password: "INFORME_CACHE_PASSWORD",
	DB:       "INFORME_CACHE_DB",
	TTL:      "INFORME_CACHE_TTL",
}

// Config is the root configuration for the Informe service.
// Database is the application store; Warehouse is the read-only
// analytics database that generated queries run against.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Warehouse       database.Config `toml:"warehouse"`
	Storage         storage.Config  `toml:"storage"`
	Cache           cache.Config    `toml:"cache"`
	API             APIConfig       `toml:"api"`
	Agents          AgentsConfig    `toml:"agents"`
	Workflow        WorkflowConfig  `toml:"workflow"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the INFORME_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvInformeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Warehouse.Merge(&overlay.Warehouse)
	c.Storage.Merge(&overlay.Storage)
	c.Cache.Merge(&overlay.Cache)
	c.API.Merge(&overlay.API)
	c.Agents.Merge(&overlay.Agents)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Warehouse.Finalize(warehouseEnv); err != nil {
		return fmt.Errorf("warehouse: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Cache.Finalize(cacheEnv); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agents.Finalize(); err != nil {
		return fmt.Errorf("agents: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvInformeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvInformeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvInformeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
