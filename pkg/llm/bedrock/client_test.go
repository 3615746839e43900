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
package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/types"
)

type fakeConverse struct {
	input  *bedrockruntime.ConverseInput
	output *bedrockruntime.ConverseOutput
	err    error
}

func (f *fakeConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput,
	optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.output, f.err
}

type weatherAction struct{}

func (weatherAction) Name() string        { return "WEATHERMAP_WEATHER" }
func (weatherAction) Description() string { return "Current weather for a city" }
func (weatherAction) Capability() string  { return "weather" }
func (weatherAction) InputSchema() *actions.JSONSchema {
	return actions.NewObjectSchema("", map[string]*actions.JSONSchema{
		"location": actions.NewStringSchema("City name"),
	}, []string{"location"})
}
func (weatherAction) Execute(ctx context.Context, params map[string]interface{}) (*actions.Result, error) {
	return &actions.Result{Success: true}, nil
}

func newFakeClient(output *bedrockruntime.ConverseOutput) (*Client, *fakeConverse) {
	fake := &fakeConverse{output: output}
	return &Client{
		client:      fake,
		modelID:     DefaultModelID,
		region:      DefaultRegion,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}, fake
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &bedrocktypes.ConverseOutputMemberMessage{
			Value: bedrocktypes.Message{
				Role: bedrocktypes.ConversationRoleAssistant,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: bedrocktypes.StopReasonEndTurn,
		Usage: &bedrocktypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(4),
			TotalTokens:  aws.Int32(14),
		},
	}
}

func TestChatTextResponse(t *testing.T) {
	client, fake := newFakeClient(textOutput("sunny, 22C"))

	resp, err := client.Chat(context.Background(), []types.Message{
		{Role: "system", Content: "You answer weather questions."},
		{Role: "user", Content: "weather in Berlin"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sunny, 22C", resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, 14, resp.Usage.TotalTokens)

	require.NotNil(t, fake.input)
	require.Len(t, fake.input.System, 1, "system messages go in the system field")
	require.Len(t, fake.input.Messages, 1)
}

func TestChatToolUseResponse(t *testing.T) {
	client, fake := newFakeClient(&bedrockruntime.ConverseOutput{
		Output: &bedrocktypes.ConverseOutputMemberMessage{
			Value: bedrocktypes.Message{
				Role: bedrocktypes.ConversationRoleAssistant,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberToolUse{
						Value: bedrocktypes.ToolUseBlock{
							ToolUseId: aws.String("tu_1"),
							Name:      aws.String("WEATHERMAP_WEATHER"),
							Input:     lazyDocument(map[string]interface{}{"location": "Berlin"}),
						},
					},
				},
			},
		},
		StopReason: bedrocktypes.StopReasonToolUse,
	})

	resp, err := client.Chat(context.Background(), []types.Message{
		{Role: "user", Content: "weather in Berlin"},
	}, []actions.Action{weatherAction{}})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "WEATHERMAP_WEATHER", resp.ToolCalls[0].Name)
	assert.Equal(t, "Berlin", resp.ToolCalls[0].Input["location"])

	require.NotNil(t, fake.input.ToolConfig)
	require.Len(t, fake.input.ToolConfig.Tools, 1)
}

func TestChatEmptyConversationFails(t *testing.T) {
	client, _ := newFakeClient(textOutput(""))
	_, err := client.Chat(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestConvertMessagesAggregatesToolResults(t *testing.T) {
	_, converseMessages := convertMessages([]types.Message{
		{Role: "user", Content: "do two things"},
		{Role: "assistant", ToolCalls: []types.ToolCall{
			{ID: "tu_1", Name: "WEATHERMAP_WEATHER"},
			{ID: "tu_2", Name: "WEATHERMAP_WEATHER"},
		}},
		{Role: "tool", ToolUseID: "tu_1", Content: `{"temp": 22}`},
		{Role: "tool", ToolUseID: "tu_2", Content: "plain text result"},
	})

	require.Len(t, converseMessages, 3, "consecutive tool results collapse into one user message")
	last := converseMessages[2]
	assert.Equal(t, bedrocktypes.ConversationRoleUser, last.Role)
	require.Len(t, last.Content, 2)
	_, isToolResult := last.Content[0].(*bedrocktypes.ContentBlockMemberToolResult)
	assert.True(t, isToolResult)
}
