package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("N3PROOF_DB", "")
	t.Setenv("N3PROOF_LOG_LEVEL", "")
	t.Setenv("N3PROOF_METRICS_ADDR", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Verifier.Unification != "wildcard" {
		t.Errorf("expected Unification=wildcard, got %s", cfg.Verifier.Unification)
	}
	if !cfg.Verifier.UseIndex {
		t.Error("expected UseIndex=true by default")
	}
	if cfg.Store.Enabled {
		t.Error("expected history store disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	cfg := DefaultConfig()
	cfg.Verifier.Unification = "bound"
	cfg.Verifier.NestedFormulas = true
	cfg.Batch.Concurrency = 8

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Verifier.Unification != "bound" {
		t.Errorf("expected Unification=bound, got %s", loaded.Verifier.Unification)
	}
	if !loaded.Verifier.NestedFormulas {
		t.Error("expected NestedFormulas=true")
	}
	if loaded.Batch.Concurrency != 8 {
		t.Errorf("expected Concurrency=8, got %d", loaded.Batch.Concurrency)
	}
}

func TestConfig_LoadMissingReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level, got %s", cfg.Logging.Level)
	}
}

func TestConfig_LoadPartialKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("verifier:\n  unification: bound\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verifier.Unification != "bound" {
		t.Errorf("expected Unification=bound, got %s", cfg.Verifier.Unification)
	}
	if cfg.Watch.Debounce != "500ms" {
		t.Errorf("expected default debounce to survive, got %q", cfg.Watch.Debounce)
	}
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("verifier: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("N3PROOF_DB", "/tmp/history.db")
	t.Setenv("N3PROOF_LOG_LEVEL", "DEBUG")
	t.Setenv("N3PROOF_METRICS_ADDR", ":9464")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Store.DatabasePath != "/tmp/history.db" || !cfg.Store.Enabled {
		t.Errorf("expected store enabled at /tmp/history.db, got %+v", cfg.Store)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level=debug, got %s", cfg.Logging.Level)
	}
	if cfg.Metrics.ListenAddr != ":9464" {
		t.Errorf("expected metrics addr :9464, got %s", cfg.Metrics.ListenAddr)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unification", func(c *Config) { c.Verifier.Unification = "fuzzy" }},
		{"level", func(c *Config) { c.Logging.Level = "trace" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
		{"concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
		{"store path", func(c *Config) { c.Store.Enabled = true; c.Store.DatabasePath = "" }},
		{"timeout", func(c *Config) { c.Verifier.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verifier.Timeout = "garbage"
	cfg.Watch.Debounce = ""
	if got := cfg.GetVerifyTimeout(); got != 30*time.Second {
		t.Errorf("GetVerifyTimeout = %v, want 30s", got)
	}
	if got := cfg.GetWatchDebounce(); got != 500*time.Millisecond {
		t.Errorf("GetWatchDebounce = %v, want 500ms", got)
	}

	cfg.Watch.Debounce = "2s"
	if got := cfg.GetWatchDebounce(); got != 2*time.Second {
		t.Errorf("GetWatchDebounce = %v, want 2s", got)
	}
}
