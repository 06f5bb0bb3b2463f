// Package config loads and validates adaptation run configuration from YAML.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
)

// AdaptationConfig tunes the training loop.
type AdaptationConfig struct {
	// Epochs is how many passes an offline run makes over its samples.
	Epochs int `yaml:"epochs" validate:"gte=1"`
	// ReflectionWindow bounds the recent-reflection FIFO.
	ReflectionWindow int `yaml:"reflection_window" validate:"gte=1"`
	// MaxRetries bounds structured-output attempts per role invocation.
	MaxRetries int `yaml:"max_retries" validate:"gte=1"`
	// MaxRefinementRounds bounds reflector refinement passes.
	MaxRefinementRounds int `yaml:"max_refinement_rounds" validate:"gte=1"`
}

// Config is the top-level run configuration.
type Config struct {
	// Provider selects the LLM backend ("anthropic" or "dummy").
	Provider string `yaml:"provider" validate:"required,oneof=anthropic dummy"`
	// Model is the provider-specific model identifier.
	Model string `yaml:"model" validate:"required"`
	// APIKeyEnv names the environment variable holding the provider key.
	APIKeyEnv string `yaml:"api_key_env"`
	// PlaybookPath is where playbook snapshots are persisted. Empty
	// disables file persistence.
	PlaybookPath string `yaml:"playbook_path"`

	Adaptation AdaptationConfig `yaml:"adaptation"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Provider: "anthropic",
		Model:    "claude-3-5-sonnet-20240620",
		Adaptation: AdaptationConfig{
			Epochs:              1,
			ReflectionWindow:    3,
			MaxRetries:          3,
			MaxRefinementRounds: 1,
		},
	}
}

// APIKey resolves the configured key variable, or the empty string.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}

// Load reads a YAML configuration file, filling unset adaptation knobs from
// Default before validating.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ResourceNotFound, "config file not found")
		}
		return nil, errors.Wrap(err, errors.Unknown, "failed to read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ParseFailed, "failed to parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
