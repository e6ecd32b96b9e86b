package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

func tempManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	t.Setenv("KEEPER_CREDENTIALS_PATH", path)
	return NewManager()
}

func TestSetAndResolveKey(t *testing.T) {
	m := tempManager(t)
	if err := m.SetKey("zai", "  key-123  "); err != nil {
		t.Fatalf("set: %v", err)
	}
	key, err := m.APIKeyFor("zai")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if key != "key-123" {
		t.Errorf("key not trimmed: %q", key)
	}

	info, err := os.Stat(m.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("credentials file mode: %v", info.Mode().Perm())
	}
}

func TestEnvOverridesStoredKey(t *testing.T) {
	m := tempManager(t)
	if err := m.SetKey("openrouter", "stored"); err != nil {
		t.Fatalf("set: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	key, err := m.APIKeyFor("openrouter")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if key != "from-env" {
		t.Errorf("env should win, got %q", key)
	}
}

func TestMissingKeyNamesEnvVar(t *testing.T) {
	m := tempManager(t)
	_, err := m.APIKeyFor("zai")
	if err == nil {
		t.Fatal("expected error for missing key")
	}
}
