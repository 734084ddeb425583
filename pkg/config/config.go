// Copyright 2026 XBase Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads application configuration.
// Priority: CLI flags > config file > env vars > defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigFileName is the name of the config file (xbase.yaml).
const DefaultConfigFileName = "xbase"

// Config holds all configuration for the assistant core.
type Config struct {
	// DataDir is the xbase data directory, set during initialization from
	// XBASE_DATA_DIR or ~/.xbase. Not loaded from the config file.
	DataDir string `mapstructure:"-"`

	LLM       LLMConfig       `mapstructure:"llm"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// LLMConfig holds reasoning engine configuration.
type LLMConfig struct {
	// Provider selects the implementation: "anthropic" or "openai"
	Provider string `mapstructure:"provider"`

	// Model overrides the provider default when set
	Model string `mapstructure:"model"`

	// APIKey authenticates against the provider
	APIKey string `mapstructure:"api_key"`

	// Endpoint overrides the provider default; for "openai" it may point
	// at any OpenAI-compatible service
	Endpoint string `mapstructure:"endpoint"`

	// Temperature is passed through to the provider
	Temperature float64 `mapstructure:"temperature"`
}

// DatabaseConfig holds tenant database configuration.
type DatabaseConfig struct {
	// URL is the postgres connection string
	URL string `mapstructure:"url"`

	// MaxPoolSize bounds the connection pool (default 10)
	MaxPoolSize int `mapstructure:"max_pool_size"`
}

// RunnerConfig holds code-execution service configuration.
type RunnerConfig struct {
	// Endpoint is the runner service URL; empty disables code execution
	Endpoint string `mapstructure:"endpoint"`

	// TimeoutSeconds bounds one execution round trip (default 30)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// RetrievalConfig holds reference-corpus retrieval configuration.
type RetrievalConfig struct {
	// Enabled turns prompt enrichment on
	Enabled bool `mapstructure:"enabled"`

	// EmbeddingAPIKey authenticates the embedding endpoint
	EmbeddingAPIKey string `mapstructure:"embedding_api_key"`

	// EmbeddingModel selects the embedding model
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `mapstructure:"level"`

	// Format is text or json
	Format string `mapstructure:"format"`
}

// RunnerTimeout returns the runner timeout as a duration.
func (c *RunnerConfig) RunnerTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from the config file, environment and
// defaults. A .env file in the working directory is loaded first so local
// development can keep credentials out of the shell profile.
func Load(cfgFile string) (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(GetDataDir())
		viper.AddConfigPath(".")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; defaults + env vars + flags
	}

	viper.SetEnvPrefix("XBASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.DataDir = GetDataDir()

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.temperature", 1.0)

	viper.SetDefault("database.max_pool_size", 10)

	viper.SetDefault("runner.timeout_seconds", 30)

	viper.SetDefault("retrieval.enabled", false)
	viper.SetDefault("retrieval.embedding_model", "text-embedding-3-small")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// Validate checks required settings. Startup is the only place allowed to
// fail hard on configuration.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "anthropic", "openai", "":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is required (set XBASE_LLM_API_KEY or llm.api_key)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (set XBASE_DATABASE_URL or database.url)")
	}
	if c.Retrieval.Enabled && c.Retrieval.EmbeddingAPIKey == "" {
		return fmt.Errorf("retrieval is enabled but no embedding api key is set")
	}
	return nil
}
