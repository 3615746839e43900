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

// ubik is a personal assistant CLI. It routes free-text requests to a team
// of capability handlers (email, calendar, files, weather, search, maps,
// slack, local filesystem) backed by an LLM.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teradata-labs/ubik/internal/version"
)

var (
	cfgFile string
	config  *Config
)

var rootCmd = &cobra.Command{
	Use:     "ubik",
	Short:   "Ubik - personal assistant in your terminal",
	Long:    `Ubik routes free-text requests to capability handlers for email, calendar, drive, weather, search, maps, slack and local files.`,
	Version: version.Get(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.ubik/ubik.yaml)")
	rootCmd.PersistentFlags().String("llm-provider", "", "LLM provider (anthropic, bedrock)")
	rootCmd.PersistentFlags().String("model", "", "model identifier override")
	rootCmd.PersistentFlags().String("user", "", "user ID for memory and account links")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile, rootCmd.PersistentFlags())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
}
