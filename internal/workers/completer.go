package workers

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Completer abstracts a single-turn language model call so worker
// adapters can be tested without a live provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type agentCompleter struct {
	cfg gaconfig.AgentConfig
}

// NewCompleter creates a Completer backed by a go-agents chat agent.
// Each call constructs a fresh agent from the stored config, matching
// the provider client's intended per-call lifecycle.
func NewCompleter(cfg gaconfig.AgentConfig) Completer {
	return &agentCompleter{cfg: cfg}
}

func (c *agentCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(&c.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat call: %w", err)
	}

	return resp.Content(), nil
}
