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
package memory

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures history size for the context budget.
// Uses tiktoken with cl100k_base encoding (Claude-compatible approximation).
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalTokenCounter *TokenCounter
	counterInitOnce    sync.Once
)

// GetTokenCounter returns a singleton token counter instance.
func GetTokenCounter() *TokenCounter {
	counterInitOnce.Do(func() {
		tkm, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			// Fallback: approximate counting when the encoding is unavailable
			globalTokenCounter = &TokenCounter{encoder: nil}
			return
		}
		globalTokenCounter = &TokenCounter{encoder: tkm}
	})
	return globalTokenCounter
}

// CountTokens returns the token count for a given text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.encoder == nil {
		// char-based estimation
		return len(text) / 4
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// TrimToBudget drops the oldest turns until the remainder fits the token
// budget. Turns must be oldest-first; the most recent turns always survive.
// Per-turn overhead of ~10 tokens accounts for role framing.
func (tc *TokenCounter) TrimToBudget(turns []Turn, budget int) []Turn {
	if budget <= 0 {
		return nil
	}

	total := 0
	cut := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		total += 10 + tc.CountTokens(turns[i].Content)
		if total > budget {
			break
		}
		cut = i
	}
	return turns[cut:]
}
