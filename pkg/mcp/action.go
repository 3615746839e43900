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
package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/teradata-labs/ubik/pkg/actions"
)

// ToolAction adapts one MCP server tool to the actions.Action interface so
// handlers can expose it to the model like any other action.
type ToolAction struct {
	client     *Client
	tool       Tool
	capability string
	schema     *actions.JSONSchema
}

var _ actions.Action = (*ToolAction)(nil)

// NewToolAction wraps a server tool. The capability tag groups the tool
// under the handler that owns the connection.
func NewToolAction(client *Client, tool Tool, capability string) *ToolAction {
	return &ToolAction{
		client:     client,
		tool:       tool,
		capability: capability,
		schema:     convertSchema(tool.InputSchema),
	}
}

// Name implements actions.Action.
func (a *ToolAction) Name() string { return a.tool.Name }

// Description implements actions.Action.
func (a *ToolAction) Description() string { return a.tool.Description }

// InputSchema implements actions.Action.
func (a *ToolAction) InputSchema() *actions.JSONSchema { return a.schema }

// Capability implements actions.Action.
func (a *ToolAction) Capability() string { return a.capability }

// Execute forwards the call to the server. Tool-level failures come back in
// the result rather than as a Go error so the model can react to them.
func (a *ToolAction) Execute(ctx context.Context, params map[string]interface{}) (*actions.Result, error) {
	start := time.Now()

	result, err := a.client.CallTool(ctx, a.tool.Name, params)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		message := err.Error()
		if result != nil && result.IsError {
			message = result.TextContent()
		}
		return &actions.Result{
			Success: false,
			Error: &actions.Error{
				Code:      "mcp_tool_error",
				Message:   message,
				Retryable: true,
			},
			ExecutionTimeMs: elapsed,
		}, nil
	}

	return &actions.Result{
		Success:         true,
		Data:            result.TextContent(),
		ExecutionTimeMs: elapsed,
	}, nil
}

// convertSchema maps the server's raw JSON schema into the actions schema
// type. Unknown or missing schemas degrade to an open object.
func convertSchema(raw map[string]interface{}) *actions.JSONSchema {
	if raw == nil {
		return actions.NewObjectSchema("", nil, nil)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return actions.NewObjectSchema("", nil, nil)
	}

	var schema actions.JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return actions.NewObjectSchema("", nil, nil)
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return &schema
}
