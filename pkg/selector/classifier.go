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
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teradata-labs/ubik/pkg/capability"
	"github.com/teradata-labs/ubik/pkg/types"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// DefaultClassifyTimeout is the hard wall for one model-backed classification.
// On expiry the in-flight call is abandoned and the rule fallback executes.
const DefaultClassifyTimeout = 1 * time.Second

const classifierInstructions = `Decide which agents are needed for a user request. Respond ONLY with JSON.
Available agents: gmail, googlecalendar, weather, composio_search, googledrive, google_maps, slack, filesystem
Format: {"agents": ["agent1", "agent2"], "needs_filesystem": false}

Examples:
"check emails" -> {"agents": ["gmail"], "needs_filesystem": false}
"schedule today" -> {"agents": ["googlecalendar"], "needs_filesystem": false}
"weather forecast" -> {"agents": ["weather"], "needs_filesystem": false}
"search for news" -> {"agents": ["composio_search"], "needs_filesystem": false}
"web search and save" -> {"agents": ["composio_search"], "needs_filesystem": true}`

// selectionSchema validates the model's answer shape before it is trusted.
const selectionSchemaJSON = `{
	"type": "object",
	"properties": {
		"agents": {"type": "array", "items": {"type": "string"}},
		"needs_filesystem": {"type": "boolean"}
	},
	"required": ["agents"]
}`

var selectionSchema = gojsonschema.NewStringLoader(selectionSchemaJSON)

// Classifier is the model-backed intent classifier. Its external contract
// always returns a non-empty selection: on timeout, transport failure, or a
// malformed answer it falls back to the rule router unioned with the
// general-purpose search capability.
type Classifier struct {
	provider types.LLMProvider
	cache    *Cache
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClassifier creates a classifier backed by the given provider. The cache
// is consulted and updated per request digest.
func NewClassifier(provider types.LLMProvider, cache *Cache, timeout time.Duration, logger *zap.Logger) *Classifier {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{provider: provider, cache: cache, timeout: timeout, logger: logger}
}

// Classify sends the request to the model with a fixed instruction prompt and
// parses its structured answer, bounded by the classifier timeout. The result
// (including fallback results) is written to the cache before returning.
func (c *Classifier) Classify(ctx context.Context, text string) Selection {
	digest := Digest(text)

	if sel, ok := c.cache.Get(digest); ok {
		return sel
	}

	sel, err := c.classifyOnce(ctx, text)
	if err != nil {
		c.logger.Debug("classifier fell back to rules",
			zap.String("reason", err.Error()))
		sel = c.fallback(text)
	}

	c.cache.Put(digest, sel)
	return sel
}

// classifyOnce performs one bounded model call. The call runs in its own
// goroutine so an overrun is abandoned, not awaited; its eventual completion
// is discarded via the buffered channel.
func (c *Classifier) classifyOnce(ctx context.Context, text string) (Selection, error) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type chatResult struct {
		resp *types.LLMResponse
		err  error
	}
	done := make(chan chatResult, 1)

	messages := []types.Message{
		{Role: "system", Content: classifierInstructions},
		{Role: "user", Content: fmt.Sprintf("Which agents needed for: %q", text)},
	}

	go func() {
		resp, err := c.provider.Chat(cctx, messages, nil)
		done <- chatResult{resp, err}
	}()

	select {
	case <-cctx.Done():
		return Selection{}, fmt.Errorf("classification timed out after %s", c.timeout)
	case result := <-done:
		if result.err != nil {
			return Selection{}, fmt.Errorf("model call failed: %w", result.err)
		}
		return parseSelection(result.resp.Content)
	}
}

// fallback is the rule router unioned with the default search capability, so
// this path never yields an empty selection.
func (c *Classifier) fallback(text string) Selection {
	sel := Route(text)
	if sel.Empty() {
		tags := map[capability.Tag]struct{}{capability.Search: {}}
		return newSelection(tags, sel.NeedsFilesystem)
	}
	return sel
}

// selectionWire is the model's answer shape.
type selectionWire struct {
	Agents          []string `json:"agents"`
	NeedsFilesystem bool     `json:"needs_filesystem"`
}

// parseSelection validates and decodes the model's JSON answer. The answer
// must match the selection schema; "filesystem" in the agent list sets the
// filesystem flag rather than becoming a tag.
func parseSelection(raw string) (Selection, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))

	result, err := gojsonschema.Validate(selectionSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Selection{}, fmt.Errorf("answer is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return Selection{}, fmt.Errorf("answer does not match selection schema: %v", result.Errors())
	}

	var wire selectionWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Selection{}, fmt.Errorf("failed to decode answer: %w", err)
	}

	tags := make(map[capability.Tag]struct{})
	needsFS := wire.NeedsFilesystem
	for _, name := range wire.Agents {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "filesystem" {
			needsFS = true
			continue
		}
		if name != "" {
			tags[capability.Tag(name)] = struct{}{}
		}
	}

	if len(tags) == 0 {
		return Selection{}, fmt.Errorf("answer selected no agents")
	}
	return newSelection(tags, needsFS), nil
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// add despite the JSON-only instruction.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
