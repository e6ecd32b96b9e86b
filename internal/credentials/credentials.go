// Package credentials stores provider API keys outside the main config so
// config.yaml can be shared or committed without leaking secrets.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"keeper/internal/config"
)

// Credentials maps provider name to its stored key material.
type Credentials struct {
	DefaultProvider string              `yaml:"default_provider"`
	Providers       map[string]Provider `yaml:"providers"`
}

type Provider struct {
	APIKey string `yaml:"api_key"`
}

// Manager handles credential storage and retrieval.
type Manager struct {
	path string
}

// NewManager locates the credentials file. KEEPER_CREDENTIALS_PATH wins,
// otherwise <config dir>/credentials.yaml.
func NewManager() *Manager {
	path := os.Getenv("KEEPER_CREDENTIALS_PATH")
	if path == "" {
		path = filepath.Join(config.GetConfigDir(), "credentials.yaml")
	}
	return &Manager{path: path}
}

// Load reads credentials from disk. A missing file yields an empty set.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{Providers: map[string]Provider{}}, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Providers == nil {
		creds.Providers = map[string]Provider{}
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func (m *Manager) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// SetKey stores one provider's API key.
func (m *Manager) SetKey(provider, key string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}
	creds.Providers[strings.ToLower(provider)] = Provider{APIKey: strings.TrimSpace(key)}
	if creds.DefaultProvider == "" {
		creds.DefaultProvider = strings.ToLower(provider)
	}
	return m.Save(creds)
}

// APIKeyFor resolves the key for a provider. Environment variables
// (ZAI_API_KEY, OPENROUTER_API_KEY) override the stored file.
func (m *Manager) APIKeyFor(provider string) (string, error) {
	provider = strings.ToLower(provider)
	envName := strings.ToUpper(provider) + "_API_KEY"
	if key := os.Getenv(envName); key != "" {
		return key, nil
	}
	creds, err := m.Load()
	if err != nil {
		return "", err
	}
	if p, ok := creds.Providers[provider]; ok && p.APIKey != "" {
		return p.APIKey, nil
	}
	return "", fmt.Errorf("no API key for provider %q (set %s or run keeper auth)", provider, envName)
}
