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

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

const (
	// ServiceName for keyring storage
	ServiceName = "ubik"
)

// Config is the full CLI configuration, loaded from flags, environment,
// config file and keyring (in that precedence order).
type Config struct {
	User string `mapstructure:"user"`

	LLM struct {
		Provider               string  `mapstructure:"provider"`
		Model                  string  `mapstructure:"model"`
		AnthropicAPIKey        string  `mapstructure:"anthropic_api_key"` // From env/keyring only
		BedrockRegion          string  `mapstructure:"bedrock_region"`
		BedrockProfile         string  `mapstructure:"bedrock_profile"`
		BedrockAccessKeyID     string  `mapstructure:"bedrock_access_key_id"`     // From env/keyring only
		BedrockSecretAccessKey string  `mapstructure:"bedrock_secret_access_key"` // From env/keyring only
		BedrockSessionToken    string  `mapstructure:"bedrock_session_token"`     // From env/keyring only
		MaxTokens              int     `mapstructure:"max_tokens"`
		Temperature            float64 `mapstructure:"temperature"`
	} `mapstructure:"llm"`

	Composio struct {
		APIKey  string `mapstructure:"api_key"` // From env/keyring only
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"composio"`

	Memory struct {
		Path          string `mapstructure:"path"`
		EncryptionKey string `mapstructure:"encryption_key"` // From env/keyring only
	} `mapstructure:"memory"`

	Workspace string `mapstructure:"workspace"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// DataDir returns the ubik data directory, creating it if needed.
func DataDir() string {
	if dir := os.Getenv("UBIK_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ubik"
	}
	return filepath.Join(home, ".ubik")
}

// LoadConfig loads configuration with viper, then fills secrets from the
// system keyring.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(DataDir())
		v.SetConfigName("ubik")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("UBIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Flags beat everything when set.
	bindings := map[string]string{
		"llm.provider":  "llm-provider",
		"llm.model":     "model",
		"user":          "user",
		"logging.level": "log-level",
	}
	for key, flag := range bindings {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env carry the day.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Non-fatal: keyring might not be available on this system.
	_ = loadSecretsFromKeyring(&cfg)

	return &cfg, nil
}

// setDefaults registers every config key with viper. AutomaticEnv only
// resolves keys viper knows about, so even empty-valued keys are listed.
func setDefaults(v *viper.Viper) {
	v.SetDefault("user", "default")

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.bedrock_region", "us-west-2")
	v.SetDefault("llm.bedrock_profile", "")
	v.SetDefault("llm.bedrock_access_key_id", "")
	v.SetDefault("llm.bedrock_secret_access_key", "")
	v.SetDefault("llm.bedrock_session_token", "")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 1.0)

	v.SetDefault("composio.api_key", "")
	v.SetDefault("composio.base_url", "")

	v.SetDefault("memory.path", filepath.Join(DataDir(), "memory.db"))
	v.SetDefault("memory.encryption_key", "")

	v.SetDefault("workspace", "")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
}

// SecretMapping defines how to load one secret from the keyring.
type SecretMapping struct {
	KeyringKey string
	Setter     func(*Config, string)
	IsSet      func(*Config) bool
}

// GetSecretMappings returns all secret mappings for the application.
func GetSecretMappings() []SecretMapping {
	return []SecretMapping{
		{
			KeyringKey: "anthropic_api_key",
			Setter:     func(c *Config, val string) { c.LLM.AnthropicAPIKey = val },
			IsSet:      func(c *Config) bool { return c.LLM.AnthropicAPIKey != "" },
		},
		{
			KeyringKey: "composio_api_key",
			Setter:     func(c *Config, val string) { c.Composio.APIKey = val },
			IsSet:      func(c *Config) bool { return c.Composio.APIKey != "" },
		},
		{
			KeyringKey: "bedrock_access_key_id",
			Setter:     func(c *Config, val string) { c.LLM.BedrockAccessKeyID = val },
			IsSet:      func(c *Config) bool { return c.LLM.BedrockAccessKeyID != "" },
		},
		{
			KeyringKey: "bedrock_secret_access_key",
			Setter:     func(c *Config, val string) { c.LLM.BedrockSecretAccessKey = val },
			IsSet:      func(c *Config) bool { return c.LLM.BedrockSecretAccessKey != "" },
		},
		{
			KeyringKey: "bedrock_session_token",
			Setter:     func(c *Config, val string) { c.LLM.BedrockSessionToken = val },
			IsSet:      func(c *Config) bool { return c.LLM.BedrockSessionToken != "" },
		},
		{
			KeyringKey: "memory_encryption_key",
			Setter:     func(c *Config, val string) { c.Memory.EncryptionKey = val },
			IsSet:      func(c *Config) bool { return c.Memory.EncryptionKey != "" },
		},
	}
}

// ListAvailableSecretKeys returns the key names accepted by set-key.
func ListAvailableSecretKeys() []string {
	mappings := GetSecretMappings()
	keys := make([]string, 0, len(mappings))
	for _, m := range mappings {
		keys = append(keys, m.KeyringKey)
	}
	return keys
}

// loadSecretsFromKeyring fills unset secrets from the system keyring.
func loadSecretsFromKeyring(cfg *Config) error {
	for _, mapping := range GetSecretMappings() {
		if mapping.IsSet(cfg) {
			continue
		}
		if value, err := keyring.Get(ServiceName, mapping.KeyringKey); err == nil && value != "" {
			mapping.Setter(cfg, value)
		}
	}
	return nil
}

// exampleConfig is written by `ubik config example`.
const exampleConfig = `# Ubik configuration
# Secrets (API keys) do not belong here: store them with
#   ubik config set-key anthropic_api_key
#   ubik config set-key composio_api_key
# or export UBIK_LLM_ANTHROPIC_API_KEY / UBIK_COMPOSIO_API_KEY.

# User ID ties conversation memory and account links together.
user: you@example.com

llm:
  provider: anthropic   # anthropic | bedrock
  # model: claude-sonnet-4-5-20250929
  # bedrock_region: us-west-2
  # bedrock_profile: default
  max_tokens: 4096
  temperature: 1.0

memory:
  # path: ~/.ubik/memory.db

# workspace: ~/Desktop/Ubik AI

logging:
  level: warn           # debug | info | warn | error
  format: text          # text | json
`
