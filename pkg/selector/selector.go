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
	"strings"
	"sync"
	"time"

	"github.com/teradata-labs/ubik/pkg/types"
	"go.uber.org/zap"
)

// ShortRequestWords is the fast-path threshold: a request at or below this
// many words with a non-empty rule match never reaches the model.
const ShortRequestWords = 7

// commonRequests are pre-classified during cache warmup.
var commonRequests = []string{
	"check my emails",
	"what's on my calendar today?",
	"weather forecast",
	"search for AI news",
	"directions to central park",
	"save this document",
	"send a slack message",
	"create a spreadsheet",
	"navigate to airport",
	"download the file",
}

// Hybrid routes a request to the rule router first and escalates to the
// model-backed classifier only when the rules are inconclusive or the request
// is long enough to plausibly need multi-capability reasoning.
type Hybrid struct {
	classifier *Classifier
	logger     *zap.Logger
}

// NewHybrid creates a hybrid selector. It owns its cache for the lifetime of
// the process.
func NewHybrid(provider types.LLMProvider, timeout time.Duration, logger *zap.Logger) *Hybrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hybrid{
		classifier: NewClassifier(provider, NewCache(), timeout, logger),
		logger:     logger,
	}
}

// Select decides the capabilities for one request. The rule router always
// runs first since it is free; the fast path must never call the network.
func (h *Hybrid) Select(ctx context.Context, text string) Selection {
	sel := Route(text)

	if !sel.Empty() && len(strings.Fields(text)) <= ShortRequestWords {
		h.logger.Debug("selection via rule fast path",
			zap.String("selection", sel.String()))
		return sel
	}

	out := h.classifier.Classify(ctx, text)
	h.logger.Debug("selection via classifier",
		zap.String("selection", out.String()))
	return out
}

// Warmup pre-classifies the common requests concurrently so repeated everyday
// queries hit the cache. Best effort: failures are already absorbed by the
// classifier's fallback and the resulting selections are still cached.
func (h *Hybrid) Warmup(ctx context.Context) {
	var wg sync.WaitGroup
	for _, req := range commonRequests {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			h.Select(ctx, text)
		}(req)
	}
	wg.Wait()
}

// CacheSize reports how many selections are memoized. Exposed for tests and
// the debug log line after warmup.
func (h *Hybrid) CacheSize() int {
	return h.classifier.cache.Len()
}
