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
package composio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teradata-labs/ubik/pkg/actions"
)

// RemoteAction adapts one named Composio action to the actions.Action
// interface so handlers can expose it to the LLM as a tool. The action is a
// black box to the core: structured parameters in, structured result out.
type RemoteAction struct {
	client     *Client
	name       string
	capability string
}

// NewRemoteAction binds a Composio action name to a capability tag.
func NewRemoteAction(client *Client, name, capabilityTag string) *RemoteAction {
	return &RemoteAction{client: client, name: name, capability: capabilityTag}
}

// Name returns the remote action name (e.g. "GMAIL_FETCH_EMAILS").
func (a *RemoteAction) Name() string {
	return a.name
}

// Description derives a short tool description from the action name.
func (a *RemoteAction) Description() string {
	readable := strings.ToLower(strings.ReplaceAll(a.name, "_", " "))
	return fmt.Sprintf("Composio action: %s.", readable)
}

// InputSchema returns an open object schema. Composio validates the concrete
// parameter shape server-side per action.
func (a *RemoteAction) InputSchema() *actions.JSONSchema {
	return actions.NewObjectSchema(
		fmt.Sprintf("Parameters for %s, passed through to the provider.", a.name),
		nil, nil)
}

// Capability returns the capability tag this action belongs to.
func (a *RemoteAction) Capability() string {
	return a.capability
}

// Execute runs the remote action.
func (a *RemoteAction) Execute(ctx context.Context, params map[string]interface{}) (*actions.Result, error) {
	start := time.Now()

	data, err := a.client.Execute(ctx, a.name, params)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return &actions.Result{
			Success: false,
			Error: &actions.Error{
				Code:       "composio_execution_failed",
				Message:    err.Error(),
				Retryable:  true,
				Suggestion: "check the connection status for this app and retry",
			},
			ExecutionTimeMs: elapsed,
		}, nil
	}

	return &actions.Result{
		Success:         true,
		Data:            data,
		Metadata:        map[string]interface{}{"action": a.name, "capability": a.capability},
		ExecutionTimeMs: elapsed,
	}, nil
}

// Ensure RemoteAction implements the Action interface.
var _ actions.Action = (*RemoteAction)(nil)
