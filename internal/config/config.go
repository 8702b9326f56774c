// Package config loads harness settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file consulted when --config is not given.
const DefaultPath = "harness.yaml"

// Environment overrides.
const (
	EnvTasks    = "HARNESS_TASKS"
	EnvResults  = "HARNESS_RESULTS"
	EnvRuns     = "HARNESS_RUNS"
	EnvLogLevel = "HARNESS_LOG_LEVEL"
)

// ValidLogLevels are the zap levels accepted in logging.level.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats are the encoders accepted in logging.format.
var ValidLogFormats = []string{"json", "console"}

// Config holds all harness configuration.
type Config struct {
	Name string `yaml:"name"`

	Paths     PathsConfig     `yaml:"paths"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Eval      EvalConfig      `yaml:"eval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PathsConfig names the files the harness reads and writes.
type PathsConfig struct {
	Tasks   string `yaml:"tasks"`
	Results string `yaml:"results"`
	Eval    string `yaml:"eval"`
	Scores  string `yaml:"scores"`
	// Battery is an optional regression gate file checked by score.
	Battery string `yaml:"battery,omitempty"`
}

// SimulatorConfig tunes response simulation.
type SimulatorConfig struct {
	// StrictGroundTruth fails the batch when a category that echoes
	// ground_truth finds none.
	StrictGroundTruth bool `yaml:"strict_ground_truth"`
}

// EvalConfig configures the repeated-run evaluator.
type EvalConfig struct {
	Runs int `yaml:"runs"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "evalharness",
		Paths: PathsConfig{
			Tasks:   "tasks.jsonl",
			Results: "results.jsonl",
			Eval:    "eval.jsonl",
			Scores:  "scores.json",
		},
		Eval: EvalConfig{
			Runs: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
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

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvTasks); v != "" {
		c.Paths.Tasks = v
	}
	if v := os.Getenv(EnvResults); v != "" {
		c.Paths.Results = v
	}
	if v := os.Getenv(EnvRuns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvRuns, v)
		}
		c.Eval.Runs = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration for values the harness cannot run with.
func (c *Config) Validate() error {
	if c.Paths.Tasks == "" {
		return fmt.Errorf("paths.tasks must not be empty")
	}
	if c.Paths.Results == "" {
		return fmt.Errorf("paths.results must not be empty")
	}
	if c.Eval.Runs < 0 {
		return fmt.Errorf("eval.runs must be >= 0, got %d", c.Eval.Runs)
	}
	if c.Logging.Level != "" && !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	if c.Logging.Format != "" && !contains(ValidLogFormats, c.Logging.Format) {
		return fmt.Errorf("invalid logging format: %s (valid: %v)", c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
