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
package team

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/mcp"
	"go.uber.org/zap"
)

// FilesystemConfig configures the local filesystem handler.
type FilesystemConfig struct {
	// Workspace is the directory the handler works in.
	// Default: ~/Desktop/Ubik AI
	Workspace string

	// Command and Args override the MCP server invocation.
	Command string
	Args    []string

	Logger *zap.Logger
}

// DefaultWorkspace returns the handler's default working directory.
func DefaultWorkspace() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Ubik AI"
	}
	return filepath.Join(home, "Desktop", "Ubik AI")
}

const fsGuidance = `You work with files in the user's workspace directory. Read, write,
organize and summarize files as asked. Never delete files, remove directories,
or run destructive shell commands; if the user asks for a destructive
operation, explain that it must be done manually.`

// NewFilesystemHandler spawns the local MCP filesystem server and wraps its
// tools as handler actions. The handler owns the server process; Close shuts
// it down.
func NewFilesystemHandler(ctx context.Context, cfg FilesystemConfig) (*Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Workspace == "" {
		cfg.Workspace = DefaultWorkspace()
	}
	if cfg.Command == "" {
		cfg.Command = "npx"
		cfg.Args = []string{"-y", "@wonderwhy-er/desktop-commander@latest"}
	}

	if err := os.MkdirAll(cfg.Workspace, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	client, err := mcp.Connect(ctx, mcp.StdioConfig{
		Command: cfg.Command,
		Args:    cfg.Args,
		Dir:     cfg.Workspace,
		Logger:  cfg.Logger,
	}, mcp.Implementation{Name: "ubik", Version: "1.0"})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to filesystem server: %w", err)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to list filesystem tools: %w", err)
	}

	acts := make([]actions.Action, 0, len(tools))
	for _, tool := range tools {
		acts = append(acts, mcp.NewToolAction(client, tool, "filesystem"))
	}

	role := "You handle local files in the user's workspace."
	guidance := fsGuidance + fmt.Sprintf("\n\nYour workspace directory is: %s", cfg.Workspace)

	return &Handler{
		Name:         "filesystem",
		Role:         role,
		Instructions: handlerInstructions(role, guidance),
		Actions:      acts,
		cleanup:      client.Close,
	}, nil
}
