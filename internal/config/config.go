package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "n3proof.yaml"

// Config holds all n3proof configuration.
type Config struct {
	// Verifier semantics
	Verifier VerifierConfig `yaml:"verifier"`

	// Verification history
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Batch verification
	Batch BatchConfig `yaml:"batch"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics"`
}

// VerifierConfig selects the proof-checking semantics.
type VerifierConfig struct {
	Unification    string `yaml:"unification"` // wildcard, bound
	NestedFormulas bool   `yaml:"nested_formulas"`
	UseIndex       bool   `yaml:"use_index"`
	Timeout        string `yaml:"timeout"`
}

// StoreConfig configures the SQLite verification history.
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// BatchConfig configures concurrent verification.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// MetricsConfig configures the metrics listener. Empty disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Verifier: VerifierConfig{
			Unification:    "wildcard",
			NestedFormulas: false,
			UseIndex:       true,
			Timeout:        "30s",
		},

		Store: StoreConfig{
			Enabled:      false,
			DatabasePath: filepath.Join(".n3proof", "history.db"),
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Setting a database path implies recording
	if path := os.Getenv("N3PROOF_DB"); path != "" {
		c.Store.DatabasePath = path
		c.Store.Enabled = true
	}
	if level := os.Getenv("N3PROOF_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if addr := os.Getenv("N3PROOF_METRICS_ADDR"); addr != "" {
		c.Metrics.ListenAddr = addr
	}
}

// GetVerifyTimeout returns the per-run verification timeout as a duration.
func (c *Config) GetVerifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.Verifier.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWatchDebounce returns the watch debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// ValidUnificationModes lists the accepted verifier.unification values.
var ValidUnificationModes = []string{"wildcard", "bound"}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidUnificationModes, c.Verifier.Unification) {
		return fmt.Errorf("invalid unification mode: %s (valid: %v)", c.Verifier.Unification, ValidUnificationModes)
	}
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Logging.Format)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Store.Enabled && c.Store.DatabasePath == "" {
		return fmt.Errorf("store enabled but database_path is empty")
	}
	for name, value := range map[string]string{"verifier.timeout": c.Verifier.Timeout, "watch.debounce": c.Watch.Debounce} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
