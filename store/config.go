package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/tailored-agentic-units/store/observability"
)

// Config holds store initialization parameters. The Observer field is a
// registry name resolved by NewFromConfig.
//
// Example JSON:
//
//	{"name": "counter", "observer": "slog", "allow_listener_dispatch": false}
type Config struct {
	Name                  string `json:"name,omitempty"                    env:"STORE_NAME"`
	Observer              string `json:"observer,omitempty"                env:"STORE_OBSERVER"`
	AllowListenerDispatch bool   `json:"allow_listener_dispatch,omitempty" env:"STORE_ALLOW_LISTENER_DISPATCH"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Name:     defaultName,
		Observer: "slog",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.AllowListenerDispatch {
		c.AllowListenerDispatch = source.AllowListenerDispatch
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// LoadConfigFromEnv merges STORE_* environment variables over defaults.
func LoadConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if err := env.Parse(&loaded); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// NewFromConfig creates a Store from configuration. Options are applied after
// the config-derived ones and may override them.
func NewFromConfig(cfg *Config, reducer Reducer, opts ...Option) (*Store, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	base := []Option{
		WithName(cfg.Name),
		WithObserver(observer),
		WithListenerDispatch(cfg.AllowListenerDispatch),
	}
	return New(reducer, append(base, opts...)...)
}
