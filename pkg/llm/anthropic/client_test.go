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
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/types"
)

type echoAction struct{}

func (echoAction) Name() string        { return "SEARCH_WEB" }
func (echoAction) Description() string { return "Search the web" }
func (echoAction) Capability() string  { return "search" }
func (echoAction) InputSchema() *actions.JSONSchema {
	return actions.NewObjectSchema("", map[string]*actions.JSONSchema{
		"query": actions.NewStringSchema("Search query"),
	}, []string{"query"})
}
func (echoAction) Execute(ctx context.Context, params map[string]interface{}) (*actions.Result, error) {
	return &actions.Result{Success: true}, nil
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:   "test-key",
		Model:    "claude-sonnet-4-5-20250929",
		Endpoint: srv.URL,
	})
}

func TestChatTextResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "You are a helpful assistant.", req.System, "system messages move to the system field")
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant",
			"model": "claude-sonnet-4-5-20250929",
			"content": [{"type": "text", "text": "Hello there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	})

	resp, err := client.Chat(context.Background(), []types.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "hi"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Greater(t, resp.Usage.CostUSD, 0.0)
}

func TestChatToolUseResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "SEARCH_WEB", req.Tools[0].Name)
		assert.Contains(t, req.Tools[0].InputSchema.Properties, "query")

		_, _ = w.Write([]byte(`{
			"id": "msg_2", "type": "message", "role": "assistant",
			"model": "claude-sonnet-4-5-20250929",
			"content": [{"type": "tool_use", "id": "tu_1", "name": "SEARCH_WEB",
				"input": {"query": "golang generics"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`))
	})

	resp, err := client.Chat(context.Background(), []types.Message{
		{Role: "user", Content: "search for golang generics"},
	}, []actions.Action{echoAction{}})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "SEARCH_WEB", resp.ToolCalls[0].Name)
	assert.Equal(t, "golang generics", resp.ToolCalls[0].Input["query"])
}

func TestChatAPIError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"type": "overloaded_error"}}`, http.StatusServiceUnavailable)
	})

	_, err := client.Chat(context.Background(), []types.Message{
		{Role: "user", Content: "hi"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestChatStreamCollectsTokens(t *testing.T) {
	events := []string{
		`event: message_start`,
		`data: {"type":"message_start","message":{"id":"msg_3","usage":{"input_tokens":12}}}`,
		``,
		`event: content_block_delta`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
		``,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
		``,
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`,
		``,
		`data: {"type":"message_stop"}`,
	}

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range events {
			_, _ = w.Write([]byte(line + "\n"))
		}
	})

	var streamed strings.Builder
	resp, err := client.ChatStream(context.Background(), []types.Message{
		{Role: "user", Content: "hi"},
	}, nil, func(token string) {
		streamed.WriteString(token)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, "Hello", streamed.String())
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}

func TestChatStreamToolUse(t *testing.T) {
	events := []string{
		`data: {"type":"message_start","message":{"id":"msg_4","usage":{"input_tokens":5}}}`,
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tu_9","name":"SEARCH_WEB"}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\":"}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"weather\"}"}}`,
		`data: {"type":"content_block_stop","index":0}`,
		`data: {"type":"message_delta","delta":{"stop_reason":"tool_use"},"usage":{"output_tokens":4}}`,
	}

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		for _, line := range events {
			_, _ = w.Write([]byte(line + "\n"))
		}
	})

	resp, err := client.ChatStream(context.Background(), []types.Message{
		{Role: "user", Content: "weather"},
	}, []actions.Action{echoAction{}}, nil)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "SEARCH_WEB", resp.ToolCalls[0].Name)
	assert.Equal(t, "weather", resp.ToolCalls[0].Input["query"])
	assert.Equal(t, "tool_use", resp.StopReason)
}

func TestConvertMessagesToolResult(t *testing.T) {
	_, apiMessages := convertMessages([]types.Message{
		{Role: "assistant", ToolCalls: []types.ToolCall{{ID: "tu_1", Name: "SEARCH_WEB"}}},
		{Role: "tool", ToolUseID: "tu_1", Content: "results here"},
	})

	require.Len(t, apiMessages, 2)
	assert.Equal(t, "assistant", apiMessages[0].Role)
	assert.Equal(t, "tool_use", apiMessages[0].Content[0].Type)

	assert.Equal(t, "user", apiMessages[1].Role, "tool results go back as user messages")
	assert.Equal(t, "tool_result", apiMessages[1].Content[0].Type)
	assert.Equal(t, "tu_1", apiMessages[1].Content[0].ToolUseID)
}

func TestToolUseBlockAlwaysHasInput(t *testing.T) {
	data, err := json.Marshal(ContentBlock{Type: "tool_use", ID: "tu_1", Name: "SEARCH_WEB"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input":{}`)
}
