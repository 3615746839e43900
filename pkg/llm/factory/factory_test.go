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
package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDefaultsToAnthropic(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		AnthropicAPIKey: "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
}

func TestNewProviderAnthropicRequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "openai"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}
