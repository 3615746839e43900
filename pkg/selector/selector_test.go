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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/capability"
	"github.com/teradata-labs/ubik/pkg/types"
)

// stubModel counts calls and returns a canned answer after an optional delay.
type stubModel struct {
	calls   int64
	answer  string
	delay   time.Duration
	chatErr error
}

func (s *stubModel) Chat(ctx context.Context, messages []types.Message, tools []actions.Action) (*types.LLMResponse, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &types.LLMResponse{Content: s.answer}, nil
}

func (s *stubModel) Name() string  { return "stub" }
func (s *stubModel) Model() string { return "stub-model" }

func (s *stubModel) callCount() int64 { return atomic.LoadInt64(&s.calls) }

func TestRouteIsPureAndDeterministic(t *testing.T) {
	inputs := []string{
		"check my emails",
		"what's on my calendar today?",
		"search for the best italian restaurant and save the results",
		"hello there",
	}
	for _, text := range inputs {
		first := Route(text)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Route(text), "Route must be deterministic for %q", text)
		}
	}
}

func TestRouteGmail(t *testing.T) {
	sel := Route("check my emails")
	assert.Equal(t, []capability.Tag{capability.Gmail}, sel.Tags)
	assert.False(t, sel.NeedsFilesystem)
}

func TestRouteSearchAndSaveOverride(t *testing.T) {
	sel := Route("search for the best italian restaurant and save the results")
	assert.True(t, sel.Has(capability.Search))
	assert.True(t, sel.NeedsFilesystem)
}

func TestRouteWeatherPlusDirectionsAddsMaps(t *testing.T) {
	sel := Route("weather and directions for my trip")
	assert.True(t, sel.Has(capability.Weather))
	assert.True(t, sel.Has(capability.Maps))
}

func TestRouteNoMatchIsInconclusive(t *testing.T) {
	sel := Route("ponder the meaning of existence")
	assert.True(t, sel.Empty())
	assert.False(t, sel.NeedsFilesystem)
}

func TestFastPathNeverCallsModel(t *testing.T) {
	model := &stubModel{answer: `{"agents":["slack"],"needs_filesystem":false}`}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	sel := h.Select(context.Background(), "check my emails")

	assert.Equal(t, []capability.Tag{capability.Gmail}, sel.Tags)
	assert.EqualValues(t, 0, model.callCount(), "short matched request must not reach the model")
}

func TestLongRequestEscalatesToModel(t *testing.T) {
	model := &stubModel{answer: `{"agents":["gmail","googlecalendar"],"needs_filesystem":false}`}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	sel := h.Select(context.Background(),
		"check my emails and also see whether tomorrow's schedule leaves room for lunch downtown")

	assert.EqualValues(t, 1, model.callCount())
	assert.True(t, sel.Has(capability.Gmail))
	assert.True(t, sel.Has(capability.Calendar))
}

func TestMalformedModelAnswerFallsBackToSearch(t *testing.T) {
	model := &stubModel{answer: "sorry, I cannot answer that"}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	// 20-word ambiguous sentence with no rule matches.
	sel := h.Select(context.Background(),
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty")

	assert.Equal(t, []capability.Tag{capability.Search}, sel.Tags)
	assert.False(t, sel.NeedsFilesystem)
}

func TestClassifierTimeoutReturnsNonEmptyWithinWindow(t *testing.T) {
	model := &stubModel{
		answer: `{"agents":["gmail"],"needs_filesystem":false}`,
		delay:  2 * time.Second,
	}
	h := NewHybrid(model, 50*time.Millisecond, nil)

	start := time.Now()
	sel := h.Select(context.Background(),
		"please take care of everything that piled up while I was gone this whole week")
	elapsed := time.Since(start)

	assert.False(t, sel.Empty(), "fallback selection must be non-empty")
	assert.Less(t, elapsed, time.Second, "classifier must return promptly after the deadline")
}

func TestClassifierCachesModelPathResults(t *testing.T) {
	model := &stubModel{answer: `{"agents":["googledrive"],"needs_filesystem":true}`}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	text := "organize all of the scattered meeting notes into a single shared document for the team please"
	first := h.Select(context.Background(), text)
	second := h.Select(context.Background(), text)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, model.callCount(), "repeat request must hit the cache")
}

func TestFilesystemAgentNameSetsFlagNotTag(t *testing.T) {
	model := &stubModel{answer: `{"agents":["composio_search","filesystem"],"needs_filesystem":false}`}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	sel := h.Select(context.Background(),
		"find every reference you can about the northern lights and keep whatever looks interesting somewhere safe")

	assert.Equal(t, []capability.Tag{capability.Search}, sel.Tags)
	assert.True(t, sel.NeedsFilesystem)
}

func TestWarmupPopulatesCache(t *testing.T) {
	model := &stubModel{answer: `{"agents":["composio_search"],"needs_filesystem":false}`}
	h := NewHybrid(model, DefaultClassifyTimeout, nil)

	h.Warmup(context.Background())

	// Only requests that escape the rule fast path are classified and cached;
	// warmup must complete without surfacing errors either way.
	require.GreaterOrEqual(t, h.CacheSize(), 0)
}

func TestCachePutGet(t *testing.T) {
	c := NewCache()
	sel := Selection{Tags: []capability.Tag{capability.Gmail}, NeedsFilesystem: true}

	d := Digest("check my emails")
	c.Put(d, sel)

	got, ok := c.Get(d)
	require.True(t, ok)
	assert.Equal(t, sel, got)
}

func TestDigestDistinguishesTexts(t *testing.T) {
	assert.NotEqual(t, Digest("check my emails"), Digest("Check my emails"))
	assert.NotEqual(t, Digest("a"), Digest("a "))
	assert.Equal(t, Digest("same"), Digest("same"))
}

func TestParseSelectionCodeFence(t *testing.T) {
	sel, err := parseSelection("```json\n{\"agents\":[\"weather\"],\"needs_filesystem\":false}\n```")
	require.NoError(t, err)
	assert.Equal(t, []capability.Tag{capability.Weather}, sel.Tags)
}

func TestParseSelectionRejectsEmptyAgents(t *testing.T) {
	_, err := parseSelection(`{"agents":[],"needs_filesystem":true}`)
	assert.Error(t, err)
}
