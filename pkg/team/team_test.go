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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/types"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []*types.LLMResponse
	calls     int
	err       error
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []types.Message, tools []actions.Action) (*types.LLMResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.calls >= len(p.responses) {
		return nil, fmt.Errorf("no more scripted responses")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "test" }

// recordingAction remembers its invocations.
type recordingAction struct {
	name     string
	result   *actions.Result
	executed []map[string]interface{}
}

func (a *recordingAction) Name() string                      { return a.name }
func (a *recordingAction) Description() string               { return "test action" }
func (a *recordingAction) Capability() string                { return "test" }
func (a *recordingAction) InputSchema() *actions.JSONSchema  { return actions.NewObjectSchema("", nil, nil) }
func (a *recordingAction) Execute(ctx context.Context, params map[string]interface{}) (*actions.Result, error) {
	a.executed = append(a.executed, params)
	if a.result != nil {
		return a.result, nil
	}
	return &actions.Result{Success: true, Data: "done"}, nil
}

func collectEvents(events <-chan Event) []Event {
	var all []Event
	for e := range events {
		all = append(all, e)
	}
	return all
}

func TestRunDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*types.LLMResponse{
		{Content: "The capital of France is Paris.", StopReason: "end_turn"},
	}}
	tm := New(Config{Provider: provider})

	all := collectEvents(tm.Run(context.Background(), "john@doe.com", "capital of France?"))
	require.Len(t, all, 1)
	content, ok := all[0].(ContentEvent)
	require.True(t, ok)
	assert.Equal(t, "The capital of France is Paris.", content.Text)
}

func TestRunExecutesToolThenAnswers(t *testing.T) {
	action := &recordingAction{name: "WEATHERMAP_WEATHER", result: &actions.Result{
		Success: true,
		Data:    map[string]interface{}{"temp": 22},
	}}
	provider := &scriptedProvider{responses: []*types.LLMResponse{
		{ToolCalls: []types.ToolCall{
			{ID: "tu_1", Name: "WEATHERMAP_WEATHER", Input: map[string]interface{}{"location": "Berlin"}},
		}, StopReason: "tool_use"},
		{Content: "It is 22C in Berlin.", StopReason: "end_turn"},
	}}
	tm := New(Config{
		Provider: provider,
		Handlers: []*Handler{{Name: "weather", Actions: []actions.Action{action}}},
	})

	all := collectEvents(tm.Run(context.Background(), "john@doe.com", "weather in Berlin"))

	require.Len(t, action.executed, 1)
	assert.Equal(t, "Berlin", action.executed[0]["location"])

	var sawToolStart bool
	var text strings.Builder
	for _, e := range all {
		switch ev := e.(type) {
		case ToolStartedEvent:
			sawToolStart = true
			assert.Equal(t, "weather", ev.Handler)
			assert.Equal(t, "WEATHERMAP_WEATHER", ev.Tool)
		case ContentEvent:
			text.WriteString(ev.Text)
		case ErrorEvent:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
	}
	assert.True(t, sawToolStart)
	assert.Equal(t, "It is 22C in Berlin.", text.String())
}

func TestRunFailedActionFeedsErrorBackToModel(t *testing.T) {
	action := &recordingAction{name: "SLACK_SEND_MESSAGE", result: &actions.Result{
		Success: false,
		Error:   &actions.Error{Code: "channel_not_found", Message: "channel not found"},
	}}
	provider := &scriptedProvider{responses: []*types.LLMResponse{
		{ToolCalls: []types.ToolCall{{ID: "tu_1", Name: "SLACK_SEND_MESSAGE"}}},
		{Content: "I could not find that channel."},
	}}
	tm := New(Config{
		Provider: provider,
		Handlers: []*Handler{{Name: "slack", Actions: []actions.Action{action}}},
	})

	all := collectEvents(tm.Run(context.Background(), "john@doe.com", "message #nope"))
	for _, e := range all {
		if ev, ok := e.(ErrorEvent); ok {
			t.Fatalf("action failure must not abort the run: %v", ev.Err)
		}
	}
	assert.Equal(t, 2, provider.calls, "the model gets the failure as a tool result")
}

func TestRunProviderErrorEmitsErrorEvent(t *testing.T) {
	provider := &scriptedProvider{err: fmt.Errorf("connection refused")}
	tm := New(Config{Provider: provider})

	all := collectEvents(tm.Run(context.Background(), "john@doe.com", "hello"))
	require.Len(t, all, 1)
	errEvent, ok := all[0].(ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, errEvent.Err.Error(), "connection refused")
}

func TestRunMaxTurnsGuard(t *testing.T) {
	// Provider keeps requesting the same tool forever.
	looping := make([]*types.LLMResponse, 5)
	for i := range looping {
		looping[i] = &types.LLMResponse{ToolCalls: []types.ToolCall{{ID: "tu", Name: "LOOP"}}}
	}
	provider := &scriptedProvider{responses: looping}
	tm := New(Config{
		Provider: provider,
		MaxTurns: 3,
		Handlers: []*Handler{{Name: "loop", Actions: []actions.Action{&recordingAction{name: "LOOP"}}}},
	})

	all := collectEvents(tm.Run(context.Background(), "john@doe.com", "go"))
	require.NotEmpty(t, all)
	errEvent, ok := all[len(all)-1].(ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, errEvent.Err.Error(), "3 turns")
}

func TestSystemPromptListsHandlers(t *testing.T) {
	tm := New(Config{
		Provider: &scriptedProvider{},
		Handlers: []*Handler{
			{Name: "gmail", Instructions: "You handle email."},
			{Name: "weather", Instructions: "You answer weather questions."},
		},
	})

	prompt := tm.systemPrompt()
	assert.Contains(t, prompt, "## gmail")
	assert.Contains(t, prompt, "## weather")
	assert.Contains(t, prompt, "You handle email.")
}

func TestUnionActionsDeduplicates(t *testing.T) {
	shared := &recordingAction{name: "SHARED"}
	tm := New(Config{
		Provider: &scriptedProvider{},
		Handlers: []*Handler{
			{Name: "a", Actions: []actions.Action{shared, &recordingAction{name: "ONLY_A"}}},
			{Name: "b", Actions: []actions.Action{shared}},
		},
	})

	union := tm.unionActions()
	assert.Len(t, union, 2)
}

func TestCoordinatorForwardsContentInOrder(t *testing.T) {
	events := make(chan Event, 3)
	events <- ContentEvent{Text: "a"}
	events <- ToolStartedEvent{Handler: "weather", Tool: "WEATHERMAP_WEATHER"}
	events <- ContentEvent{Text: "b"}
	close(events)

	var sink strings.Builder
	text, err := NewCoordinator(&sink, nil).Drain(events)
	require.NoError(t, err)
	assert.Equal(t, "ab", sink.String(), "tool events never interrupt the content stream")
	assert.Equal(t, "ab", text)
}

func TestCoordinatorKeepsPartialOutputOnError(t *testing.T) {
	events := make(chan Event, 2)
	events <- ContentEvent{Text: "partial "}
	events <- ErrorEvent{Err: fmt.Errorf("stream died")}
	close(events)

	var sink strings.Builder
	text, err := NewCoordinator(&sink, nil).Drain(events)
	require.Error(t, err)
	assert.Equal(t, "partial ", sink.String())
	assert.Equal(t, "partial ", text)
}

func TestLocalTimezoneNonEmpty(t *testing.T) {
	assert.NotEmpty(t, localTimezone())
}
