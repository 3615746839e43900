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
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ubik.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "john@doe.com", "user", "check my emails"))
	require.NoError(t, store.Append(ctx, "john@doe.com", "assistant", "you have 3 unread emails"))
	require.NoError(t, store.Append(ctx, "john@doe.com", "user", "weather forecast"))

	turns, err := store.Recent(ctx, "john@doe.com", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "check my emails", turns[0].Content, "oldest first")
	assert.Equal(t, "weather forecast", turns[2].Content)
}

func TestRecentLimitKeepsNewest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.Append(ctx, "john@doe.com", "user", msg))
	}

	turns, err := store.Recent(ctx, "john@doe.com", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
}

func TestRecentIsolatedPerUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "john@doe.com", "user", "mine"))
	require.NoError(t, store.Append(ctx, "jane@doe.com", "user", "hers"))

	turns, err := store.Recent(ctx, "john@doe.com", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "mine", turns[0].Content)
}

func TestRecentZeroIsEmpty(t *testing.T) {
	store := openTestStore(t)
	turns, err := store.Recent(context.Background(), "john@doe.com", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestTrimToBudgetKeepsMostRecent(t *testing.T) {
	tc := GetTokenCounter()

	turns := []Turn{
		{Content: strings.Repeat("old words ", 100)},
		{Content: "middle"},
		{Content: "newest"},
	}

	trimmed := tc.TrimToBudget(turns, 50)
	require.NotEmpty(t, trimmed)
	assert.Equal(t, "newest", trimmed[len(trimmed)-1].Content)
	assert.Less(t, len(trimmed), 3, "the oversized oldest turn must be dropped")
}

func TestTrimToBudgetZero(t *testing.T) {
	tc := GetTokenCounter()
	assert.Nil(t, tc.TrimToBudget([]Turn{{Content: "x"}}, 0))
}
