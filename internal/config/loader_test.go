package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, "libsql", cfg.Store.Driver)
	require.NotEmpty(t, cfg.Store.Path)
	require.Equal(t, 120*time.Second, cfg.LLM.DefaultTimeout)

	require.Equal(t, 500, cfg.Infer.Profiles["llama"].MaxCalls)
	require.Equal(t, 60*time.Second, cfg.Infer.Profiles["llama"].Period)
	require.Equal(t, 1, cfg.Infer.Profiles["llama"].Concurrency)
	require.Equal(t, 1000, cfg.Infer.Profiles["claude"].MaxCalls)
	require.Equal(t, 30*time.Second, cfg.Infer.Profiles["claude"].Period)
	require.Equal(t, 2, cfg.Infer.Profiles["claude"].Concurrency)
	require.Equal(t, 720*time.Hour, cfg.Infer.CacheTTL)

	require.Equal(t, "https://boardgamegeek.com/xmlapi2", cfg.Scrape.BaseURL)
	require.Equal(t, 3, cfg.Scrape.MaxRetries)
	require.Equal(t, 5*time.Second, cfg.Scrape.RetryDelay)
	require.Equal(t, time.Second, cfg.Scrape.PageDelay)

	require.Equal(t, "gpt-4o", cfg.Dataset.Backend)
	require.Equal(t, 10, cfg.Dataset.MaxExamples)
	require.Equal(t, 3, cfg.Dataset.MinForumPosts)

	require.Equal(t, "gpt-4o", cfg.Eval.Backend)
	require.Equal(t, int64(12345), cfg.Eval.Seed)

	require.Equal(t, 1024, cfg.Pack.MaxImageDim)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	v.Set("store.url", "libsql://bench.turso.io")
	v.Set("store.auth_token", "secret")
	v.Set("infer.profiles.llama.max_calls", 50)
	v.Set("infer.profiles.llama.period", "10s")
	v.Set("llm.providers.openai.type", "openai")
	v.Set("llm.providers.openai.enabled", true)
	v.Set("llm.providers.openai.api_key", "sk-test")
	v.Set("llm.routing.gpt-4o", "openai")
	v.Set("eval.seed", 99)

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Equal(t, "libsql://bench.turso.io", cfg.Store.URL)
	require.Equal(t, "secret", cfg.Store.AuthToken)
	require.Equal(t, 50, cfg.Infer.Profiles["llama"].MaxCalls)
	require.Equal(t, 10*time.Second, cfg.Infer.Profiles["llama"].Period)
	require.Equal(t, "openai", cfg.LLM.Providers["openai"].Type)
	require.True(t, cfg.LLM.Providers["openai"].Enabled)
	require.Equal(t, "openai", cfg.LLM.Routing["gpt-4o"])
	require.Equal(t, int64(99), cfg.Eval.Seed)
}

func TestLoadFallsBackToDefaultStorePath(t *testing.T) {
	v := viper.New()
	v.Set("store.driver", "libsql")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Store.Path)
}
