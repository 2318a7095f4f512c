package llm

import "time"

// Config defines provider configuration for the inference layer.
type Config struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// Providers is a set of provider instances keyed by a user-defined id.
	Providers map[string]ProviderConfig `mapstructure:"providers"`

	// Routing maps a backend identity (the model name a pipeline stage asks
	// for) to a provider id. Identities without a route use DefaultProvider.
	Routing map[string]string `mapstructure:"routing"`
}

// ProviderConfig defines a configured provider instance.
type ProviderConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Type is the driver identifier: "openai", "azure", or "replicate".
	Type string `mapstructure:"type"`

	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	APIVersion string `mapstructure:"api_version"` // azure only

	// MaxRetries bounds transport-level retries on transient failures.
	MaxRetries int `mapstructure:"max_retries"`

	// Models maps backend identities to provider model names (or Azure
	// deployment names). The "default" entry applies when no identity
	// matches.
	Models map[string]string `mapstructure:"models"`
}
