package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentEnv maps agent config fields to environment variable names so each
// worker role can be overridden independently.
type AgentEnv struct {
	ProviderName string
	BaseURL      string
	Token        string
	Deployment   string
	APIVersion   string
	AuthType     string
	ModelName    string
}

func agentEnv(role string) *AgentEnv {
	prefix := "INFORME_AGENT_" + role + "_"
	return &AgentEnv{
		ProviderName: prefix + "PROVIDER_NAME",
		BaseURL:      prefix + "BASE_URL",
		Token:        prefix + "TOKEN",
		Deployment:   prefix + "DEPLOYMENT",
		APIVersion:   prefix + "API_VERSION",
		AuthType:     prefix + "AUTH_TYPE",
		ModelName:    prefix + "MODEL_NAME",
	}
}

// AgentsConfig holds one agent configuration per worker role.
type AgentsConfig struct {
	SQLGen    gaconfig.AgentConfig `toml:"sqlgen"`
	Visualize gaconfig.AgentConfig `toml:"visualize"`
	Review    gaconfig.AgentConfig `toml:"review"`
}

// Finalize applies the three-phase finalize pattern to each role's agent.
func (c *AgentsConfig) Finalize() error {
	roles := []struct {
		name string
		cfg  *gaconfig.AgentConfig
		env  *AgentEnv
	}{
		{"sqlgen", &c.SQLGen, agentEnv("SQLGEN")},
		{"visualize", &c.Visualize, agentEnv("VISUALIZE")},
		{"review", &c.Review, agentEnv("REVIEW")},
	}

	for _, role := range roles {
		if role.cfg.Name == "" {
			role.cfg.Name = role.name
		}
		if err := finalizeAgent(role.cfg, role.env); err != nil {
			return fmt.Errorf("%s: %w", role.name, err)
		}
	}
	return nil
}

// Merge overwrites configured fields from overlay for each role.
func (c *AgentsConfig) Merge(overlay *AgentsConfig) {
	c.SQLGen.Merge(&overlay.SQLGen)
	c.Visualize.Merge(&overlay.Visualize)
	c.Review.Merge(&overlay.Review)
}

func finalizeAgent(c *gaconfig.AgentConfig, env *AgentEnv) error {
	loadAgentDefaults(c)
	loadAgentEnv(c, env)
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig, env *AgentEnv) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(env.ProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(env.BaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(env.ModelName); v != "" {
		c.Model.Name = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Provider.Options[key] = v
		}
	}

	setOption(env.Token, "token")
	setOption(env.Deployment, "deployment")
	setOption(env.APIVersion, "api_version")
	setOption(env.AuthType, "auth_type")
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
