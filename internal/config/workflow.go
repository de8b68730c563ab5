package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWorkflowMaxIterations     = "INFORME_WORKFLOW_MAX_ITERATIONS"
	EnvWorkflowMaxConcurrentRuns = "INFORME_WORKFLOW_MAX_CONCURRENT_RUNS"
	EnvWorkflowGenerateTimeout   = "INFORME_WORKFLOW_GENERATE_TIMEOUT"
	EnvWorkflowExecuteTimeout    = "INFORME_WORKFLOW_EXECUTE_TIMEOUT"
	EnvWorkflowVisualizeTimeout  = "INFORME_WORKFLOW_VISUALIZE_TIMEOUT"
	EnvWorkflowReviewTimeout     = "INFORME_WORKFLOW_REVIEW_TIMEOUT"
	EnvWorkflowWorkerRetries     = "INFORME_WORKFLOW_WORKER_RETRIES"
	EnvWorkflowRetryBaseDelay    = "INFORME_WORKFLOW_RETRY_BASE_DELAY"
)

// WorkflowConfig holds report pipeline tuning parameters.
type WorkflowConfig struct {
	// MaxIterations caps review cycles per run. A rejection on the final
	// iteration fails the run.
	MaxIterations     int    `toml:"max_iterations"`
	MaxConcurrentRuns int    `toml:"max_concurrent_runs"`
	GenerateTimeout   string `toml:"generate_timeout"`
	ExecuteTimeout    string `toml:"execute_timeout"`
	VisualizeTimeout  string `toml:"visualize_timeout"`
	ReviewTimeout     string `toml:"review_timeout"`
	// WorkerRetries is the transient-failure retry budget inside a single
	// worker invocation, separate from MaxIterations.
	WorkerRetries  int    `toml:"worker_retries"`
	RetryBaseDelay string `toml:"retry_base_delay"`
}

// GenerateTimeoutDuration returns GenerateTimeout as a time.Duration.
func (c *WorkflowConfig) GenerateTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.GenerateTimeout)
	return d
}

// ExecuteTimeoutDuration returns ExecuteTimeout as a time.Duration.
func (c *WorkflowConfig) ExecuteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ExecuteTimeout)
	return d
}

// VisualizeTimeoutDuration returns VisualizeTimeout as a time.Duration.
func (c *WorkflowConfig) VisualizeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.VisualizeTimeout)
	return d
}

// ReviewTimeoutDuration returns ReviewTimeout as a time.Duration.
func (c *WorkflowConfig) ReviewTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReviewTimeout)
	return d
}

// RetryBaseDelayDuration returns RetryBaseDelay as a time.Duration.
func (c *WorkflowConfig) RetryBaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBaseDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.MaxIterations != 0 {
		c.MaxIterations = overlay.MaxIterations
	}
	if overlay.MaxConcurrentRuns != 0 {
		c.MaxConcurrentRuns = overlay.MaxConcurrentRuns
	}
	if overlay.GenerateTimeout != "" {
		c.GenerateTimeout = overlay.GenerateTimeout
	}
	if overlay.ExecuteTimeout != "" {
		c.ExecuteTimeout = overlay.ExecuteTimeout
	}
	if overlay.VisualizeTimeout != "" {
		c.VisualizeTimeout = overlay.VisualizeTimeout
	}
	if overlay.ReviewTimeout != "" {
		c.ReviewTimeout = overlay.ReviewTimeout
	}
	if overlay.WorkerRetries != 0 {
		c.WorkerRetries = overlay.WorkerRetries
	}
	if overlay.RetryBaseDelay != "" {
		c.RetryBaseDelay = overlay.RetryBaseDelay
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 3
	}
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 4
	}
	if c.GenerateTimeout == "" {
		c.GenerateTimeout = "20s"
	}
	if c.ExecuteTimeout == "" {
		c.ExecuteTimeout = "30s"
	}
	if c.VisualizeTimeout == "" {
		c.VisualizeTimeout = "20s"
	}
	if c.ReviewTimeout == "" {
		c.ReviewTimeout = "20s"
	}
	if c.WorkerRetries == 0 {
		c.WorkerRetries = 2
	}
	if c.RetryBaseDelay == "" {
		c.RetryBaseDelay = "500ms"
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowMaxIterations); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIterations = n
		}
	}
	if v := os.Getenv(EnvWorkflowMaxConcurrentRuns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrentRuns = n
		}
	}
	if v := os.Getenv(EnvWorkflowGenerateTimeout); v != "" {
		c.GenerateTimeout = v
	}
	if v := os.Getenv(EnvWorkflowExecuteTimeout); v != "" {
		c.ExecuteTimeout = v
	}
	if v := os.Getenv(EnvWorkflowVisualizeTimeout); v != "" {
		c.VisualizeTimeout = v
	}
	if v := os.Getenv(EnvWorkflowReviewTimeout); v != "" {
		c.ReviewTimeout = v
	}
	if v := os.Getenv(EnvWorkflowWorkerRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WorkerRetries = n
		}
	}
	if v := os.Getenv(EnvWorkflowRetryBaseDelay); v != "" {
		c.RetryBaseDelay = v
	}
}

func (c *WorkflowConfig) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be at least 1, got %d", c.MaxConcurrentRuns)
	}
	if c.WorkerRetries < 0 {
		return fmt.Errorf("worker_retries must not be negative, got %d", c.WorkerRetries)
	}
	for name, value := range map[string]string{
		"generate_timeout":  c.GenerateTimeout,
		"execute_timeout":   c.ExecuteTimeout,
		"visualize_timeout": c.VisualizeTimeout,
		"review_timeout":    c.ReviewTimeout,
		"retry_base_delay":  c.RetryBaseDelay,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
