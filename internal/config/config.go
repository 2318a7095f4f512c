package config

import (
	"time"

	"github.com/rulebench/rulebench/internal/infer"
	"github.com/rulebench/rulebench/internal/llm"
)

// Config represents the complete application configuration.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	LLM     llm.Config    `mapstructure:"llm"`
	Infer   InferConfig   `mapstructure:"infer"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Pack    PackConfig    `mapstructure:"pack"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// InferConfig contains dispatch admission settings per backend identity.
type InferConfig struct {
	Profiles map[string]infer.Profile `mapstructure:"profiles"`
	Default  infer.Profile            `mapstructure:"default"`
	CacheTTL time.Duration            `mapstructure:"cache_ttl"`
}

// ScrapeConfig contains BoardGameGeek XML API settings.
type ScrapeConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	GameID     int           `mapstructure:"game_id"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	PageDelay  time.Duration `mapstructure:"page_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// DatasetConfig contains QA extraction and distractor synthesis settings.
type DatasetConfig struct {
	Backend              string `mapstructure:"backend"`
	MaxExamples          int    `mapstructure:"max_examples"`
	FilterRulesQuestions bool   `mapstructure:"filter_rules_questions"`
	GamePreamble         string `mapstructure:"game_preamble"`
	MinForumPosts        int    `mapstructure:"min_forum_posts"`
}

// EvalConfig contains evaluation harness settings.
type EvalConfig struct {
	Backend string `mapstructure:"backend"`
	Seed    int64  `mapstructure:"seed"`
}

// PackConfig contains dataset packaging settings.
type PackConfig struct {
	MaxImageDim int           `mapstructure:"max_image_dim"`
	Timeout     time.Duration `mapstructure:"timeout"`
}
