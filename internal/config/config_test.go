package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Mode != ModeLocal {
		t.Fatalf("expected local mode by default, got %s", cfg.Mode)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if !cfg.UseMockLLM {
		t.Fatal("local mode should default to the mock LLM")
	}
	if cfg.Session.ChatLength != 10*time.Minute {
		t.Fatalf("unexpected chat length: %v", cfg.Session.ChatLength)
	}
	if cfg.Session.TokenCap != 3 {
		t.Fatalf("unexpected token cap: %d", cfg.Session.TokenCap)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAL_PORT", "9999")
	t.Setenv("PAL_TOKEN_CAP", "5")
	t.Setenv("PAL_MAX_EXTENSIONS", "1")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Fatalf("PAL_PORT not applied: %s", cfg.Port)
	}
	if cfg.Session.TokenCap != 5 {
		t.Fatalf("PAL_TOKEN_CAP not applied: %d", cfg.Session.TokenCap)
	}
	if cfg.Session.MaxExtensions != 1 {
		t.Fatalf("PAL_MAX_EXTENSIONS not applied: %d", cfg.Session.MaxExtensions)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pal.yaml")
	body := []byte("session:\n  chat_length: 2m\n  max_extensions: 2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PAL_CONFIG_FILE", path)

	cfg := Load()
	if cfg.Session.ChatLength != 2*time.Minute {
		t.Fatalf("file chat_length not applied: %v", cfg.Session.ChatLength)
	}
	if cfg.Session.MaxExtensions != 2 {
		t.Fatalf("file max_extensions not applied: %d", cfg.Session.MaxExtensions)
	}
	// Untouched knobs keep their defaults.
	if cfg.Session.TokenCap != 3 {
		t.Fatalf("token cap lost its default: %d", cfg.Session.TokenCap)
	}
}
