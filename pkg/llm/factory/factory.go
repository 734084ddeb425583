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

// Package factory creates LLM providers from configuration.
package factory

import (
	"fmt"

	"github.com/xbase-labs/xbase/pkg/llm"
	"github.com/xbase-labs/xbase/pkg/llm/anthropic"
	"github.com/xbase-labs/xbase/pkg/llm/openai"
)

// Config holds provider selection and credentials.
type Config struct {
	// Provider selects the implementation: "anthropic" or "openai".
	Provider string

	// Model overrides the provider's default model when set.
	Model string

	// APIKey authenticates against the selected provider.
	APIKey string

	// Endpoint overrides the provider's default endpoint when set. For
	// the openai provider this may point at any OpenAI-compatible service.
	Endpoint string

	// Temperature is passed through to the provider.
	Temperature float64
}

// NewProvider creates an LLM provider from configuration.
func NewProvider(cfg Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Endpoint:    cfg.Endpoint,
			Temperature: cfg.Temperature,
		}), nil

	case "openai", "":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Endpoint:    cfg.Endpoint,
			Temperature: cfg.Temperature,
		}), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: anthropic, openai)", cfg.Provider)
	}
}
