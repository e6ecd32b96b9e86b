package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "zai" {
		t.Errorf("default provider: %q", cfg.Provider)
	}
	if cfg.Model != DefaultZAIModel {
		t.Errorf("default model: %q", cfg.Model)
	}
	if cfg.MaxRounds != 6 {
		t.Errorf("default max rounds: %d", cfg.MaxRounds)
	}
	if cfg.ListenAddr == "" || cfg.StorePath == "" {
		t.Errorf("paths not defaulted: %+v", cfg)
	}
}

func TestLoadFromFileOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
provider: openrouter
max_rounds: 4
listen_addr: ":9000"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "openrouter" {
		t.Errorf("provider: %q", cfg.Provider)
	}
	if cfg.Model != DefaultOpenRouterModel {
		t.Errorf("model should follow provider: %q", cfg.Model)
	}
	if cfg.MaxRounds != 4 {
		t.Errorf("max_rounds: %d", cfg.MaxRounds)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen_addr: %q", cfg.ListenAddr)
	}
	if cfg.ProviderModels["zai"] != DefaultZAIModel {
		t.Errorf("provider_models not backfilled: %+v", cfg.ProviderModels)
	}
}

func TestLoadFromRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: toaster\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
