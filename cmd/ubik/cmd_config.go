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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration and secrets",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Write an example configuration file",
	Long:  `Write an example ubik.yaml to ~/.ubik/ (or UBIK_DATA_DIR).`,
	RunE:  runConfigExample,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [key-name]",
	Short: "Save a secret to the system keyring",
	Long: `Save a secret to the system keyring (Keychain on macOS, Credential
Manager on Windows, Secret Service on Linux). Input is read without echo.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

var configListKeysCmd = &cobra.Command{
	Use:   "list-keys",
	Short: "List secret key names",
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range ListAvailableSecretKeys() {
			fmt.Println(k)
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the merged configuration from defaults, file, environment and flags. Secrets are redacted.`,
	RunE:  runConfigShow,
}

var configDeleteKeyCmd = &cobra.Command{
	Use:   "delete-key [key-name]",
	Short: "Remove a secret from the system keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keyring.Delete(ServiceName, args[0]); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		fmt.Printf("Deleted %s from system keyring\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configListKeysCmd)
	configCmd.AddCommand(configDeleteKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigExample(cmd *cobra.Command, args []string) error {
	dir := DataDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, "ubik.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, not overwriting", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	type llmView struct {
		Provider        string  `yaml:"provider"`
		Model           string  `yaml:"model,omitempty"`
		AnthropicAPIKey string  `yaml:"anthropic_api_key,omitempty"`
		BedrockRegion   string  `yaml:"bedrock_region,omitempty"`
		BedrockProfile  string  `yaml:"bedrock_profile,omitempty"`
		MaxTokens       int     `yaml:"max_tokens"`
		Temperature     float64 `yaml:"temperature"`
	}
	type view struct {
		User string  `yaml:"user"`
		LLM  llmView `yaml:"llm"`
		Composio struct {
			APIKey  string `yaml:"api_key,omitempty"`
			BaseURL string `yaml:"base_url,omitempty"`
		} `yaml:"composio"`
		Memory struct {
			Path      string `yaml:"path"`
			Encrypted bool   `yaml:"encrypted"`
		} `yaml:"memory"`
		Workspace string `yaml:"workspace,omitempty"`
		Logging   struct {
			Level  string `yaml:"level"`
			Format string `yaml:"format"`
		} `yaml:"logging"`
	}

	var out view
	out.User = config.User
	out.LLM = llmView{
		Provider:        config.LLM.Provider,
		Model:           config.LLM.Model,
		AnthropicAPIKey: redact(config.LLM.AnthropicAPIKey),
		BedrockRegion:   config.LLM.BedrockRegion,
		BedrockProfile:  config.LLM.BedrockProfile,
		MaxTokens:       config.LLM.MaxTokens,
		Temperature:     config.LLM.Temperature,
	}
	out.Composio.APIKey = redact(config.Composio.APIKey)
	out.Composio.BaseURL = config.Composio.BaseURL
	out.Memory.Path = config.Memory.Path
	out.Memory.Encrypted = config.Memory.EncryptionKey != ""
	out.Workspace = config.Workspace
	out.Logging.Level = config.Logging.Level
	out.Logging.Format = config.Logging.Format

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "<set>"
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	keyName := args[0]

	valid := false
	for _, k := range ListAvailableSecretKeys() {
		if k == keyName {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid key name %q (available: %s)",
			keyName, strings.Join(ListAvailableSecretKeys(), ", "))
	}

	fmt.Printf("Enter %s (input hidden): ", keyName)
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	secret := string(secretBytes)
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if err := keyring.Set(ServiceName, keyName, secret); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	fmt.Printf("Saved %s to system keyring\n", keyName)
	return nil
}
