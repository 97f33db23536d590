// Package config loads shapes CLI settings from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location relative to the repo root.
var DefaultPath = filepath.Join(".shapes", "config.yaml")

// Config holds all CLI settings.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Output   OutputConfig   `yaml:"output"`
	Scripts  ScriptsConfig  `yaml:"scripts"`
	Logging  LoggingConfig  `yaml:"logging"`
	Batch    BatchConfig    `yaml:"batch"`
}

// DatabaseConfig configures the history database.
type DatabaseConfig struct {
	// Path is resolved against the repo root when relative.
	Path string `yaml:"path"`
	// Record toggles writing evaluations and searches to the history.
	Record bool `yaml:"record"`
}

// OutputConfig configures result formatting.
type OutputConfig struct {
	Format string `yaml:"format"` // json | text
}

// ScriptsConfig configures where Risor scripts come from.
type ScriptsConfig struct {
	// Dir loads scripts from disk instead of the embedded set when non-empty.
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// BatchConfig configures concurrent batch evaluation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:   filepath.Join(".shapes", "history.db"),
			Record: true,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// applyEnvOverrides applies SHAPES_* environment variables.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SHAPES_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SHAPES_RECORD"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHAPES_RECORD %q: %w", v, err)
		}
		c.Database.Record = b
	}
	if v := os.Getenv("SHAPES_FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv("SHAPES_SCRIPTS_DIR"); v != "" {
		c.Scripts.Dir = v
	}
	if v := os.Getenv("SHAPES_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SHAPES_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHAPES_CONCURRENCY %q: %w", v, err)
		}
		c.Batch.Concurrency = n
	}
	return nil
}

// ValidFormats lists accepted output formats.
var ValidFormats = []string{"json", "text"}

// Validate checks enumerated and numeric fields.
func (c *Config) Validate() error {
	if err := ValidateFormat(c.Output.Format); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// ValidateFormat checks an output format against ValidFormats.
func ValidateFormat(format string) error {
	for _, f := range ValidFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(ValidFormats, " or "))
}
