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

// Package bedrock implements the LLMProvider interface on AWS Bedrock using
// the Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/types"
)

// Default Bedrock configuration values.
// Can be overridden via AWS_BEDROCK_MODEL_ID and AWS_DEFAULT_REGION.
const (
	// DefaultModelID uses Claude Sonnet with a cross-region inference profile
	DefaultModelID     = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"
	DefaultRegion      = "us-west-2"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 1.0
)

// converseAPI is the subset of the bedrockruntime client the provider uses.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput,
		optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client implements the LLMProvider interface for AWS Bedrock.
type Client struct {
	client      converseAPI
	modelID     string
	region      string
	maxTokens   int
	temperature float64
}

// Config holds configuration for the Bedrock client.
type Config struct {
	Region          string // AWS region (e.g. us-east-1)
	AccessKeyID     string // Optional: if not using IAM role/profile
	SecretAccessKey string // Optional: if not using IAM role/profile
	SessionToken    string // Optional: for temporary credentials
	Profile         string // Optional: AWS profile name from ~/.aws/config

	ModelID     string  // Default: cross-region Claude Sonnet profile
	MaxTokens   int     // Default: 4096
	Temperature float64 // Default: 1.0
}

// NewClient creates a Bedrock client. Credentials resolve in order: explicit
// keys, named profile, then the default AWS credentials chain.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ModelID == "" {
		if envModel := os.Getenv("AWS_BEDROCK_MODEL_ID"); envModel != "" {
			cfg.ModelID = envModel
		} else {
			cfg.ModelID = DefaultModelID
		}
	}
	if cfg.Region == "" {
		if envRegion := os.Getenv("AWS_DEFAULT_REGION"); envRegion != "" {
			cfg.Region = envRegion
		} else {
			cfg.Region = DefaultRegion
		}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	var awsCfg aws.Config
	var err error
	switch {
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			)),
		)
	case cfg.Profile != "":
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithSharedConfigProfile(cfg.Profile),
		)
	default:
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		modelID:     cfg.ModelID,
		region:      cfg.Region,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "bedrock"
}

// Model returns the model identifier.
func (c *Client) Model() string {
	return c.modelID
}

// Chat sends a conversation to Bedrock via the Converse API.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []actions.Action) (*types.LLMResponse, error) {
	systemBlocks, converseMessages := convertMessages(messages)
	if len(converseMessages) == 0 {
		return nil, fmt.Errorf("no valid messages to send")
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		Messages: converseMessages,
		InferenceConfig: &bedrocktypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(c.maxTokens)),
			Temperature: aws.Float32(float32(c.temperature)),
		},
	}
	if len(systemBlocks) > 0 {
		input.System = systemBlocks
	}
	if len(tools) > 0 {
		input.ToolConfig = convertTools(tools)
	}

	output, err := c.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse failed: %w", err)
	}
	return c.convertOutput(output), nil
}

// convertMessages converts conversation messages to Converse API format.
// Bedrock requires all tool results from one turn in a single user message,
// so consecutive tool messages are aggregated.
func convertMessages(messages []types.Message) ([]bedrocktypes.SystemContentBlock, []bedrocktypes.Message) {
	var systemBlocks []bedrocktypes.SystemContentBlock
	var converseMessages []bedrocktypes.Message

	var pendingToolResults []bedrocktypes.ContentBlock
	flushToolResults := func() {
		if len(pendingToolResults) > 0 {
			converseMessages = append(converseMessages, bedrocktypes.Message{
				Role:    bedrocktypes.ConversationRoleUser,
				Content: pendingToolResults,
			})
			pendingToolResults = nil
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if msg.Content != "" {
				systemBlocks = append(systemBlocks, &bedrocktypes.SystemContentBlockMemberText{
					Value: msg.Content,
				})
			}

		case "user":
			flushToolResults()
			if msg.Content != "" {
				converseMessages = append(converseMessages, bedrocktypes.Message{
					Role: bedrocktypes.ConversationRoleUser,
					Content: []bedrocktypes.ContentBlock{
						&bedrocktypes.ContentBlockMemberText{Value: msg.Content},
					},
				})
			}

		case "assistant":
			flushToolResults()
			var contentBlocks []bedrocktypes.ContentBlock
			if msg.Content != "" {
				contentBlocks = append(contentBlocks, &bedrocktypes.ContentBlockMemberText{
					Value: msg.Content,
				})
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Input
				if input == nil {
					input = map[string]interface{}{}
				}
				contentBlocks = append(contentBlocks, &bedrocktypes.ContentBlockMemberToolUse{
					Value: bedrocktypes.ToolUseBlock{
						ToolUseId: aws.String(tc.ID),
						Name:      aws.String(tc.Name),
						Input:     lazyDocument(input),
					},
				})
			}
			if len(contentBlocks) > 0 {
				converseMessages = append(converseMessages, bedrocktypes.Message{
					Role:    bedrocktypes.ConversationRoleAssistant,
					Content: contentBlocks,
				})
			}

		case "tool":
			var toolResultContent bedrocktypes.ToolResultContentBlock
			var contentData interface{}
			if err := json.Unmarshal([]byte(msg.Content), &contentData); err == nil {
				toolResultContent = &bedrocktypes.ToolResultContentBlockMemberJson{
					Value: lazyDocument(contentData),
				}
			} else {
				toolResultContent = &bedrocktypes.ToolResultContentBlockMemberText{
					Value: msg.Content,
				}
			}
			pendingToolResults = append(pendingToolResults, &bedrocktypes.ContentBlockMemberToolResult{
				Value: bedrocktypes.ToolResultBlock{
					ToolUseId: aws.String(msg.ToolUseID),
					Content:   []bedrocktypes.ToolResultContentBlock{toolResultContent},
				},
			})
		}
	}
	flushToolResults()

	return systemBlocks, converseMessages
}

// lazyDocument wraps a value for the Converse API document fields.
func lazyDocument(v interface{}) document.Interface {
	return document.NewLazyDocument(v)
}

// convertTools converts actions to a Converse ToolConfiguration.
func convertTools(tools []actions.Action) *bedrocktypes.ToolConfiguration {
	var converseTools []bedrocktypes.Tool
	for _, tool := range tools {
		var inputSchema bedrocktypes.ToolInputSchema
		if schema := tool.InputSchema(); schema != nil {
			schemaMap := map[string]interface{}{
				"type":       "object",
				"properties": convertSchemaProperties(schema.Properties),
			}
			if len(schema.Required) > 0 {
				schemaMap["required"] = schema.Required
			}
			inputSchema = &bedrocktypes.ToolInputSchemaMemberJson{
				Value: lazyDocument(schemaMap),
			}
		}
		converseTools = append(converseTools, &bedrocktypes.ToolMemberToolSpec{
			Value: bedrocktypes.ToolSpecification{
				Name:        aws.String(tool.Name()),
				Description: aws.String(tool.Description()),
				InputSchema: inputSchema,
			},
		})
	}
	return &bedrocktypes.ToolConfiguration{Tools: converseTools}
}

// convertSchemaProperties renders JSONSchema properties as plain maps.
func convertSchemaProperties(props map[string]*actions.JSONSchema) map[string]interface{} {
	result := make(map[string]interface{})
	for key, schema := range props {
		propMap := map[string]interface{}{"type": schema.Type}
		if schema.Description != "" {
			propMap["description"] = schema.Description
		}
		if schema.Enum != nil {
			propMap["enum"] = schema.Enum
		}
		if schema.Properties != nil {
			propMap["properties"] = convertSchemaProperties(schema.Properties)
		}
		if schema.Items != nil {
			propMap["items"] = map[string]interface{}{"type": schema.Items.Type}
		}
		result[key] = propMap
	}
	return result
}

// convertOutput converts a Converse response to the provider format.
func (c *Client) convertOutput(output *bedrockruntime.ConverseOutput) *types.LLMResponse {
	var contentText string
	var toolCalls []types.ToolCall

	if msg, ok := output.Output.(*bedrocktypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch b := block.(type) {
			case *bedrocktypes.ContentBlockMemberText:
				contentText += b.Value
			case *bedrocktypes.ContentBlockMemberToolUse:
				toolCall := types.ToolCall{
					ID:    aws.ToString(b.Value.ToolUseId),
					Name:  aws.ToString(b.Value.Name),
					Input: make(map[string]interface{}),
				}
				if b.Value.Input != nil {
					if inputBytes, err := json.Marshal(b.Value.Input); err == nil {
						_ = json.Unmarshal(inputBytes, &toolCall.Input)
					}
				}
				toolCalls = append(toolCalls, toolCall)
			}
		}
	}

	usage := types.Usage{}
	if output.Usage != nil {
		usage.InputTokens = int(aws.ToInt32(output.Usage.InputTokens))
		usage.OutputTokens = int(aws.ToInt32(output.Usage.OutputTokens))
		usage.TotalTokens = int(aws.ToInt32(output.Usage.TotalTokens))
	}

	return &types.LLMResponse{
		Content:    contentText,
		ToolCalls:  toolCalls,
		StopReason: string(output.StopReason),
		Usage:      usage,
		Metadata: map[string]interface{}{
			"model":       c.modelID,
			"stop_reason": output.StopReason,
		},
	}
}

// Ensure Client implements LLMProvider interface.
var _ types.LLMProvider = (*Client)(nil)
