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
package assistant

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/memory"
	"github.com/teradata-labs/ubik/pkg/selector"
	"github.com/teradata-labs/ubik/pkg/team"
	"github.com/teradata-labs/ubik/pkg/types"
)

type stubProvider struct {
	answer string
	err    error
}

func (p *stubProvider) Chat(ctx context.Context, messages []types.Message, tools []actions.Action) (*types.LLMResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &types.LLMResponse{Content: p.answer, StopReason: "end_turn"}, nil
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "test" }

type openOracle struct{}

func (openOracle) IsAuthorized(ctx context.Context, app string) bool { return true }

func newTestPipeline(t *testing.T, provider types.LLMProvider, sink *strings.Builder) *Pipeline {
	t.Helper()

	store, err := memory.Open(filepath.Join(t.TempDir(), "ubik.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	composer := team.NewComposer(team.ComposerConfig{Oracle: openOracle{}})

	return New(Config{
		Selector: selector.NewHybrid(provider, time.Second, nil),
		Composer: composer,
		Provider: provider,
		Store:    store,
		Sink:     sink,
		UserID:   "john@doe.com",
	})
}

func TestQueryStreamsAnswerAndPersists(t *testing.T) {
	var sink strings.Builder
	provider := &stubProvider{answer: "You have no unread emails."}
	p := newTestPipeline(t, provider, &sink)

	// Short rule-matched request: selection happens without the model.
	require.NoError(t, p.Query(context.Background(), "check my emails"))

	out := sink.String()
	assert.Contains(t, out, "[agents: gmail]")
	assert.Contains(t, out, "You have no unread emails.")

	turns, err := p.store.Recent(context.Background(), "john@doe.com", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "check my emails", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestQueryEmptyRequest(t *testing.T) {
	var sink strings.Builder
	p := newTestPipeline(t, &stubProvider{answer: "x"}, &sink)

	assert.Error(t, p.Query(context.Background(), "   "))
}

func TestQueryProviderFailureReturnsSingleError(t *testing.T) {
	var sink strings.Builder
	provider := &stubProvider{err: fmt.Errorf("connection refused")}
	p := newTestPipeline(t, provider, &sink)

	err := p.Query(context.Background(), "weather forecast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	// The pipeline survives and serves the next request.
	provider.err = nil
	provider.answer = "sunny"
	assert.NoError(t, p.Query(context.Background(), "weather forecast"))
}

func TestQuerySelectionSummaryBeforeContent(t *testing.T) {
	var sink strings.Builder
	p := newTestPipeline(t, &stubProvider{answer: "22C and clear."}, &sink)

	require.NoError(t, p.Query(context.Background(), "weather forecast"))

	out := sink.String()
	agentsIdx := strings.Index(out, "[agents: weather]")
	contentIdx := strings.Index(out, "22C and clear.")
	require.GreaterOrEqual(t, agentsIdx, 0)
	require.Greater(t, contentIdx, agentsIdx)
}
