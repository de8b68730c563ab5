package config_test

import (
	"testing"
	"time"

	"github.com/informe-labs/informe/internal/config"
)

func TestWorkflowDefaults(t *testing.T) {
	cfg := &config.WorkflowConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d, want 3", cfg.MaxIterations)
	}
	if cfg.MaxConcurrentRuns != 4 {
		t.Errorf("MaxConcurrentRuns = %d, want 4", cfg.MaxConcurrentRuns)
	}
	if cfg.WorkerRetries != 2 {
		t.Errorf("WorkerRetries = %d, want 2", cfg.WorkerRetries)
	}

	durations := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"generate", cfg.GenerateTimeoutDuration(), 20 * time.Second},
		{"execute", cfg.ExecuteTimeoutDuration(), 30 * time.Second},
		{"visualize", cfg.VisualizeTimeoutDuration(), 20 * time.Second},
		{"review", cfg.ReviewTimeoutDuration(), 20 * time.Second},
		{"retry base delay", cfg.RetryBaseDelayDuration(), 500 * time.Millisecond},
	}
	for _, d := range durations {
		if d.got != d.want {
			t.Errorf("%s = %v, want %v", d.name, d.got, d.want)
		}
	}
}

func TestWorkflowEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvWorkflowMaxIterations, "5")
	t.Setenv(config.EnvWorkflowExecuteTimeout, "45s")
	t.Setenv(config.EnvWorkflowRetryBaseDelay, "1s")

	cfg := &config.WorkflowConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.MaxIterations)
	}
	if cfg.ExecuteTimeoutDuration() != 45*time.Second {
		t.Errorf("ExecuteTimeout = %v, want 45s", cfg.ExecuteTimeoutDuration())
	}
	if cfg.RetryBaseDelayDuration() != time.Second {
		t.Errorf("RetryBaseDelay = %v, want 1s", cfg.RetryBaseDelayDuration())
	}
}

func TestWorkflowValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.WorkflowConfig
	}{
		{"negative max iterations", config.WorkflowConfig{MaxIterations: -1}},
		{"negative concurrent runs", config.WorkflowConfig{MaxConcurrentRuns: -2}},
		{"negative worker retries", config.WorkflowConfig{WorkerRetries: -1}},
		{"malformed generate timeout", config.WorkflowConfig{GenerateTimeout: "soon"}},
		{"malformed retry base delay", config.WorkflowConfig{RetryBaseDelay: "0.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWorkflowMerge(t *testing.T) {
	base := &config.WorkflowConfig{}
	if err := base.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	base.Merge(&config.WorkflowConfig{
		MaxIterations:  4,
		ReviewTimeout:  "1m",
		RetryBaseDelay: "",
	})

	if base.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4", base.MaxIterations)
	}
	if base.ReviewTimeout != "1m" {
		t.Errorf("ReviewTimeout = %q, want 1m", base.ReviewTimeout)
	}
	if base.RetryBaseDelay != "500ms" {
		t.Errorf("RetryBaseDelay = %q, zero overlay must not clobber", base.RetryBaseDelay)
	}
}
