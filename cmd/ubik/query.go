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
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/teradata-labs/ubik/internal/log"
	"github.com/teradata-labs/ubik/pkg/assistant"
	"github.com/teradata-labs/ubik/pkg/composio"
	"github.com/teradata-labs/ubik/pkg/llm/factory"
	"github.com/teradata-labs/ubik/pkg/memory"
	"github.com/teradata-labs/ubik/pkg/selector"
	"github.com/teradata-labs/ubik/pkg/team"
	"go.uber.org/zap"
)

var queryCmd = &cobra.Command{
	Use:   "query [request]",
	Short: "Run a single request",
	Long:  `Run one free-text request through the assistant and print the answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session",
	Long:  `Start an interactive session. Common requests are pre-classified in the background while you type.`,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(chatCmd)
}

// buildPipeline assembles the full query pipeline from the loaded config.
// The returned cleanup must run before exit.
func buildPipeline(ctx context.Context) (*assistant.Pipeline, func(), error) {
	logger, err := log.NewLogger(config.Logging.Level, config.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	log.SetLogger(logger)

	provider, err := factory.NewProvider(ctx, factory.Config{
		Provider:               config.LLM.Provider,
		Model:                  config.LLM.Model,
		AnthropicAPIKey:        config.LLM.AnthropicAPIKey,
		BedrockRegion:          config.LLM.BedrockRegion,
		BedrockAccessKeyID:     config.LLM.BedrockAccessKeyID,
		BedrockSecretAccessKey: config.LLM.BedrockSecretAccessKey,
		BedrockSessionToken:    config.LLM.BedrockSessionToken,
		BedrockProfile:         config.LLM.BedrockProfile,
		MaxTokens:              config.LLM.MaxTokens,
		Temperature:            config.LLM.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}

	if config.Composio.APIKey == "" {
		return nil, nil, fmt.Errorf("composio API key not configured (run: ubik config set-key composio_api_key)")
	}
	composioClient := composio.NewClient(composio.Config{
		APIKey:   config.Composio.APIKey,
		EntityID: config.User,
		BaseURL:  config.Composio.BaseURL,
	})

	store, err := memory.Open(config.Memory.Path, config.Memory.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open memory: %w", err)
	}

	composer := team.NewComposer(team.ComposerConfig{
		Oracle:    composioClient,
		Composio:  composioClient,
		Workspace: config.Workspace,
		Logger:    logger,
	})

	pipeline := assistant.New(assistant.Config{
		Selector: selector.NewHybrid(provider, selector.DefaultClassifyTimeout, logger),
		Composer: composer,
		Provider: provider,
		Store:    store,
		Sink:     os.Stdout,
		UserID:   config.User,
		Logger:   logger,
	})

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close memory store", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return pipeline, cleanup, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return pipeline.Query(ctx, strings.Join(args, " "))
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline, cleanup, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// Warm the selection cache while the user types the first request.
	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pipeline.Warmup(warmupCtx)
	}()

	fmt.Println("Ubik ready. Type a request, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		// Errors end the request, never the session.
		if err := pipeline.Query(ctx, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
