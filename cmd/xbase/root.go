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
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xbase-labs/xbase/internal/log"
	"github.com/xbase-labs/xbase/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xbase",
	Short: "XBase - natural-language database assistant core",
	Long:  `XBase lets users query and modify their own isolated database schema in natural language, with explicit confirmation before any state-changing statement runs.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XBASE_DATA_DIR/xbase.yaml)")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-provider", "anthropic", "LLM provider (anthropic, openai)")
	rootCmd.PersistentFlags().String("llm-model", "", "model override (empty = provider default)")
	rootCmd.PersistentFlags().String("llm-key", "", "LLM API key (or use env)")
	rootCmd.PersistentFlags().String("llm-endpoint", "", "provider endpoint override")
	rootCmd.PersistentFlags().Float64("temperature", 1.0, "LLM temperature")

	// Database flags
	rootCmd.PersistentFlags().String("db-url", "", "postgres connection string")
	rootCmd.PersistentFlags().Int("db-pool-size", 10, "connection pool size")

	// Runner flags
	rootCmd.PersistentFlags().String("runner-endpoint", "", "code runner service URL (empty = code execution disabled)")
	rootCmd.PersistentFlags().Int("runner-timeout", 30, "code runner timeout in seconds")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	_ = viper.BindPFlag("llm.api_key", rootCmd.PersistentFlags().Lookup("llm-key"))
	_ = viper.BindPFlag("llm.endpoint", rootCmd.PersistentFlags().Lookup("llm-endpoint"))
	_ = viper.BindPFlag("llm.temperature", rootCmd.PersistentFlags().Lookup("temperature"))

	_ = viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("db-url"))
	_ = viper.BindPFlag("database.max_pool_size", rootCmd.PersistentFlags().Lookup("db-pool-size"))

	_ = viper.BindPFlag("runner.endpoint", rootCmd.PersistentFlags().Lookup("runner-endpoint"))
	_ = viper.BindPFlag("runner.timeout_seconds", rootCmd.PersistentFlags().Lookup("runner-timeout"))

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if _, err := log.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}
}
