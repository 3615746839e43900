// Copyright 2026 Teradata
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
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/ubik/pkg/llm/anthropic"
	"github.com/teradata-labs/ubik/pkg/llm/bedrock"
	"github.com/teradata-labs/ubik/pkg/types"
)

// Config holds configuration for creating LLM providers.
type Config struct {
	// Provider selects the backend: "anthropic" (default) or "bedrock"
	Provider string
	Model    string

	// Anthropic configuration
	AnthropicAPIKey string

	// Bedrock configuration
	BedrockRegion          string
	BedrockAccessKeyID     string
	BedrockSecretAccessKey string
	BedrockSessionToken    string
	BedrockProfile         string

	// Common settings
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// NewProvider creates an LLM provider for the configured backend.
func NewProvider(ctx context.Context, cfg Config) (types.LLMProvider, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "anthropic"
	}

	switch provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}), nil

	case "bedrock":
		return bedrock.NewClient(ctx, bedrock.Config{
			Region:          cfg.BedrockRegion,
			AccessKeyID:     cfg.BedrockAccessKeyID,
			SecretAccessKey: cfg.BedrockSecretAccessKey,
			SessionToken:    cfg.BedrockSessionToken,
			Profile:         cfg.BedrockProfile,
			ModelID:         cfg.Model,
			MaxTokens:       cfg.MaxTokens,
			Temperature:     cfg.Temperature,
		})

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: anthropic, bedrock)", provider)
	}
}
