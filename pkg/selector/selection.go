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

// Package selector decides which capabilities a request needs. It combines a
// free rule-based router with a model-backed classifier behind a hard
// deadline, memoizing classifier results per request digest.
package selector

import (
	"sort"
	"strings"

	"github.com/teradata-labs/ubik/pkg/capability"
)

// Selection is the decided set of capabilities for one request. Produced once
// per request and immutable afterward.
type Selection struct {
	// Tags is the sorted, de-duplicated set of selected capability tags.
	Tags []capability.Tag

	// NeedsFilesystem indicates the request needs the filesystem handler.
	NeedsFilesystem bool
}

// Has reports whether the selection contains the given tag.
func (s Selection) Has(tag capability.Tag) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Empty reports whether no capability was selected. Callers must treat an
// empty rule-path selection as inconclusive, not as "no capability needed".
func (s Selection) Empty() bool {
	return len(s.Tags) == 0
}

// String renders the selection for the selected-agents summary line.
func (s Selection) String() string {
	names := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		names[i] = string(t)
	}
	out := strings.Join(names, ", ")
	if s.NeedsFilesystem {
		if out == "" {
			return "filesystem"
		}
		out += " + filesystem"
	}
	return out
}

// newSelection builds a Selection from a tag set, sorting for determinism.
func newSelection(tags map[capability.Tag]struct{}, needsFS bool) Selection {
	out := make([]capability.Tag, 0, len(tags))
	for tag := range tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Selection{Tags: out, NeedsFilesystem: needsFS}
}
