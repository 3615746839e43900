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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/memory"
	"github.com/teradata-labs/ubik/pkg/types"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTurns bounds the tool-use loop for one request.
	DefaultMaxTurns = 10

	// DefaultHistoryRuns is how many past exchanges are replayed as context.
	DefaultHistoryRuns = 3

	// DefaultHistoryTokenBudget caps the replayed history size.
	DefaultHistoryTokenBudget = 4000
)

// Team runs one request through the assembled handlers in coordinate mode:
// a single conversation whose system prompt describes every handler, with
// the union of their tools available to the model.
type Team struct {
	handlers []*Handler
	provider types.LLMProvider
	store    *memory.Store
	logger   *zap.Logger

	maxTurns      int
	historyRuns   int
	historyBudget int
}

// Config configures a team run.
type Config struct {
	Handlers []*Handler
	Provider types.LLMProvider
	Store    *memory.Store // optional conversation memory
	Logger   *zap.Logger

	MaxTurns           int
	HistoryRuns        int
	HistoryTokenBudget int
}

// New creates a team over the given handlers.
func New(cfg Config) *Team {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.HistoryRuns == 0 {
		cfg.HistoryRuns = DefaultHistoryRuns
	}
	if cfg.HistoryTokenBudget == 0 {
		cfg.HistoryTokenBudget = DefaultHistoryTokenBudget
	}

	return &Team{
		handlers:      cfg.Handlers,
		provider:      cfg.Provider,
		store:         cfg.Store,
		logger:        cfg.Logger,
		maxTurns:      cfg.MaxTurns,
		historyRuns:   cfg.HistoryRuns,
		historyBudget: cfg.HistoryTokenBudget,
	}
}

// Handlers returns the team's handlers.
func (t *Team) Handlers() []*Handler {
	return t.handlers
}

// Close releases all handler resources.
func (t *Team) Close() error {
	var firstErr error
	for _, h := range t.handlers {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes the request and streams events. The returned channel closes
// when the run finishes; an ErrorEvent, if any, is the final event.
func (t *Team) Run(ctx context.Context, userID, request string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		t.run(ctx, userID, request, events)
	}()
	return events
}

func (t *Team) run(ctx context.Context, userID, request string, events chan<- Event) {
	messages := []types.Message{
		{Role: "system", Content: t.systemPrompt()},
	}
	messages = append(messages, t.history(ctx, userID)...)
	messages = append(messages, types.Message{
		Role:      "user",
		Content:   request,
		Timestamp: time.Now(),
	})

	tools := t.unionActions()
	actionIndex := make(map[string]actions.Action, len(tools))
	ownerIndex := make(map[string]string, len(tools))
	for _, h := range t.handlers {
		for _, a := range h.Actions {
			if _, exists := actionIndex[a.Name()]; !exists {
				actionIndex[a.Name()] = a
				ownerIndex[a.Name()] = h.Name
			}
		}
	}

	for turn := 0; turn < t.maxTurns; turn++ {
		resp, err := t.chat(ctx, messages, tools, events)
		if err != nil {
			events <- ErrorEvent{Err: fmt.Errorf("model call failed: %w", err)}
			return
		}

		if len(resp.ToolCalls) == 0 {
			return
		}

		messages = append(messages, types.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			events <- ToolStartedEvent{Handler: ownerIndex[tc.Name], Tool: tc.Name}

			action, ok := actionIndex[tc.Name]
			var resultText string
			if !ok {
				resultText = fmt.Sprintf("Error: unknown tool %q", tc.Name)
			} else {
				resultText = t.executeAction(ctx, action, tc.Input)
			}

			messages = append(messages, types.Message{
				Role:      "tool",
				Content:   resultText,
				ToolUseID: tc.ID,
			})
		}
	}

	events <- ErrorEvent{Err: fmt.Errorf("request exceeded %d turns", t.maxTurns)}
}

// chat calls the provider, streaming tokens as content events when the
// provider supports it.
func (t *Team) chat(ctx context.Context, messages []types.Message,
	tools []actions.Action, events chan<- Event) (*types.LLMResponse, error) {

	if streamer, ok := t.provider.(types.StreamingLLMProvider); ok {
		return streamer.ChatStream(ctx, messages, tools, func(token string) {
			events <- ContentEvent{Text: token}
		})
	}

	resp, err := t.provider.Chat(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	if resp.Content != "" {
		events <- ContentEvent{Text: resp.Content}
	}
	return resp, nil
}

// executeAction runs one tool call and renders its outcome for the model.
// Action failures are reported back as text so the model can recover.
func (t *Team) executeAction(ctx context.Context, action actions.Action, input map[string]interface{}) string {
	result, err := action.Execute(ctx, input)
	if err != nil {
		t.logger.Warn("action execution failed",
			zap.String("action", action.Name()),
			zap.Error(err))
		return fmt.Sprintf("Error: %v", err)
	}
	if !result.Success {
		msg := "action failed"
		if result.Error != nil {
			msg = result.Error.Message
		}
		return fmt.Sprintf("Error: %s", msg)
	}

	switch data := result.Data.(type) {
	case string:
		return data
	case nil:
		return "OK"
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(encoded)
	}
}

// systemPrompt renders the team charter plus one section per handler.
func (t *Team) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are Ubik, a personal assistant. You coordinate a team of\n")
	b.WriteString("specialized handlers to fulfill the user's request. Use the available\n")
	b.WriteString("tools when they help; answer directly when they don't. Be concise.\n")

	for _, h := range t.handlers {
		b.WriteString("\n## ")
		b.WriteString(h.Name)
		b.WriteString("\n")
		b.WriteString(h.Instructions)
		b.WriteString("\n")
	}
	return b.String()
}

// unionActions merges handler actions, first handler wins on name clashes.
func (t *Team) unionActions() []actions.Action {
	seen := make(map[string]struct{})
	var union []actions.Action
	for _, h := range t.handlers {
		for _, a := range h.Actions {
			if _, dup := seen[a.Name()]; dup {
				continue
			}
			seen[a.Name()] = struct{}{}
			union = append(union, a)
		}
	}
	return union
}

// history replays the user's recent turns within the token budget. Memory
// failures degrade to an empty history.
func (t *Team) history(ctx context.Context, userID string) []types.Message {
	if t.store == nil || userID == "" {
		return nil
	}

	turns, err := t.store.Recent(ctx, userID, t.historyRuns*2)
	if err != nil {
		t.logger.Warn("failed to load conversation history", zap.Error(err))
		return nil
	}
	turns = memory.GetTokenCounter().TrimToBudget(turns, t.historyBudget)

	messages := make([]types.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, types.Message{
			Role:      turn.Role,
			Content:   turn.Content,
			Timestamp: turn.CreatedAt,
		})
	}
	return messages
}
