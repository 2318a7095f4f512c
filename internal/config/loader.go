// Package config provides centralized configuration management for
// rulebench. Values merge from defaults, an optional YAML config file,
// and RULEBENCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/rulebench/rulebench/internal/infer"
)

// EnvPrefix namespaces environment variable overrides (RULEBENCH_STORE_PATH etc).
const EnvPrefix = "RULEBENCH"

// Load decodes the merged viper state into a typed Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	return cfg, nil
}

// SetDefaults seeds viper with the built-in configuration values.
func SetDefaults(v *viper.Viper) {
	// Store defaults
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Provider defaults
	v.SetDefault("llm.default_timeout", "120s")

	// Dispatch admission defaults. Backend identities not listed here use
	// the permissive default profile.
	v.SetDefault("infer.default.max_calls", infer.DefaultProfile.MaxCalls)
	v.SetDefault("infer.default.period", infer.DefaultProfile.Period.String())
	v.SetDefault("infer.default.concurrency", infer.DefaultProfile.Concurrency)
	v.SetDefault("infer.profiles.llama.max_calls", 500)
	v.SetDefault("infer.profiles.llama.period", "60s")
	v.SetDefault("infer.profiles.llama.concurrency", 1)
	v.SetDefault("infer.profiles.claude.max_calls", 1000)
	v.SetDefault("infer.profiles.claude.period", "30s")
	v.SetDefault("infer.profiles.claude.concurrency", 2)
	v.SetDefault("infer.cache_ttl", "720h")

	// Scrape defaults
	v.SetDefault("scrape.base_url", "https://boardgamegeek.com/xmlapi2")
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.retry_delay", "5s")
	v.SetDefault("scrape.page_delay", "1s")
	v.SetDefault("scrape.timeout", "30s")

	// Dataset defaults
	v.SetDefault("dataset.backend", "gpt-4o")
	v.SetDefault("dataset.max_examples", 10)
	v.SetDefault("dataset.filter_rules_questions", false)
	v.SetDefault("dataset.min_forum_posts", 3)

	// Eval defaults
	v.SetDefault("eval.backend", "gpt-4o")
	v.SetDefault("eval.seed", 12345)

	// Pack defaults
	v.SetDefault("pack.max_image_dim", 1024)
	v.SetDefault("pack.timeout", "60s")
}

// DefaultConfigDir returns the user config directory for rulebench.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "rulebench")
}

// DefaultStorePath returns the default path to the database file.
func DefaultStorePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "./rulebench.db"
	}
	return filepath.Join(base, "rulebench", "rulebench.db")
}
