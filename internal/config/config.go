// Package config loads the runtime settings from ~/.keeper/config.yaml,
// applying defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"keeper/internal/agent"
	"keeper/internal/planner"
)

// Provider-specific default models.
const (
	DefaultZAIModel        = "glm-4.6"
	DefaultOpenRouterModel = "deepseek/deepseek-chat-v3-0324"
	DefaultMockModel       = "mock-model"

	DefaultZAIBaseURL        = "https://api.z.ai/api/coding/paas/v4/chat/completions"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Config captures the tunable runtime settings for the housekeeper.
type Config struct {
	Provider              string            `yaml:"provider"`
	Model                 string            `yaml:"model"`
	ProviderModels        map[string]string `yaml:"provider_models"`
	ZAIBaseURL            string            `yaml:"zai_base_url"`
	OpenRouterBaseURL     string            `yaml:"openrouter_base_url"`
	RequestTimeoutSeconds int               `yaml:"request_timeout_seconds"`
	MaxRounds             int               `yaml:"max_rounds"`
	PlanMaxTokens         int               `yaml:"plan_max_tokens"`
	StorePath             string            `yaml:"store_path"`
	AttachmentDir         string            `yaml:"attachment_dir"`
	ListenAddr            string            `yaml:"listen_addr"`
	APIToken              string            `yaml:"api_token"`
	LogFile               string            `yaml:"log_file"`
	AnalyticsEndpoint     string            `yaml:"analytics_endpoint"`
}

// GetConfigDir returns the keeper config directory, honoring
// KEEPER_CONFIG_DIR for tests and containers.
func GetConfigDir() string {
	if dir := os.Getenv("KEEPER_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".keeper"
	}
	return filepath.Join(home, ".keeper")
}

// Load reads config.yaml from the config dir. A missing file yields pure
// defaults, not an error.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(GetConfigDir(), "config.yaml"))
}

// LoadFrom reads a specific config file.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "zai"
	}
	c.Provider = strings.ToLower(c.Provider)
	if c.ProviderModels == nil {
		c.ProviderModels = map[string]string{}
	}
	for provider, model := range map[string]string{
		"zai":        DefaultZAIModel,
		"openrouter": DefaultOpenRouterModel,
		"mock":       DefaultMockModel,
	} {
		if c.ProviderModels[provider] == "" {
			c.ProviderModels[provider] = model
		}
	}
	if c.Model == "" {
		c.Model = c.ProviderModels[c.Provider]
	}
	if c.ZAIBaseURL == "" {
		c.ZAIBaseURL = DefaultZAIBaseURL
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = DefaultOpenRouterBaseURL
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 120
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = agent.DefaultMaxRounds
	}
	if c.PlanMaxTokens <= 0 {
		c.PlanMaxTokens = planner.DefaultMaxTokens
	}
	if c.StorePath == "" {
		c.StorePath = filepath.Join(GetConfigDir(), "keeper.db")
	}
	if c.AttachmentDir == "" {
		c.AttachmentDir = filepath.Join(GetConfigDir(), "attachments")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8160"
	}
}

func (c *Config) validate() error {
	switch c.Provider {
	case "zai", "openrouter", "mock":
	default:
		return fmt.Errorf("unknown provider %q (zai, openrouter, mock)", c.Provider)
	}
	if c.MaxRounds > 20 {
		return fmt.Errorf("max_rounds %d unreasonably high", c.MaxRounds)
	}
	return nil
}

// RequestTimeout is the per-call transport timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// EnsureDefaultConfig writes a starter config.yaml if none exists.
func EnsureDefaultConfig() error {
	dir := GetConfigDir()
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	cfg := &Config{}
	cfg.applyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
