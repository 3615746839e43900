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
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/teradata-labs/ubik/pkg/capability"
	"github.com/teradata-labs/ubik/pkg/composio"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Manage connected apps",
	Long:  `List supported apps, check account link status, and connect new apps.`,
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported apps",
	RunE:  runAppsList,
}

var appsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account link status for each OAuth app",
	RunE:  runAppsStatus,
}

var appsConnectCmd = &cobra.Command{
	Use:   "connect [app]",
	Short: "Start the account link flow for an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppsConnect,
}

func init() {
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsStatusCmd)
	appsCmd.AddCommand(appsConnectCmd)
	rootCmd.AddCommand(appsCmd)
}

func newComposioClient() (*composio.Client, error) {
	if config.Composio.APIKey == "" {
		return nil, fmt.Errorf("composio API key not configured (run: ubik config set-key composio_api_key)")
	}
	return composio.NewClient(composio.Config{
		APIKey:   config.Composio.APIKey,
		EntityID: config.User,
		BaseURL:  config.Composio.BaseURL,
	}), nil
}

func runAppsList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CAPABILITY\tAPP\tAUTH\tACTIONS")
	for _, tag := range append(capability.NoAuthApps(), capability.OAuthApps()...) {
		spec, _ := capability.Lookup(tag)
		auth := "none"
		if spec.RequiresAuth {
			auth = "oauth"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", tag, spec.App, auth, len(spec.Actions))
	}
	return w.Flush()
}

func runAppsStatus(cmd *cobra.Command, args []string) error {
	client, err := newComposioClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APP\tSTATUS")
	for _, tag := range capability.OAuthApps() {
		spec, _ := capability.Lookup(tag)
		status := "not connected"
		if client.IsAuthorized(ctx, spec.App) {
			status = "connected"
		}
		fmt.Fprintf(w, "%s\t%s\n", spec.App, status)
	}
	return w.Flush()
}

func runAppsConnect(cmd *cobra.Command, args []string) error {
	app := args[0]

	var spec capability.Spec
	var found bool
	for _, tag := range capability.All() {
		s, _ := capability.Lookup(tag)
		if s.App == app || string(tag) == app {
			spec, found = s, true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown app: %s (run: ubik apps list)", app)
	}
	if !spec.RequiresAuth {
		fmt.Printf("%s needs no account link.\n", spec.App)
		return nil
	}

	client, err := newComposioClient()
	if err != nil {
		return err
	}

	url, err := client.Initiate(cmd.Context(), spec.App)
	if err != nil {
		return fmt.Errorf("failed to start account link: %w", err)
	}

	fmt.Printf("Open this URL in your browser to connect %s:\n\n  %s\n", spec.App, url)
	return nil
}
