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
	"regexp"
	"strings"

	"github.com/teradata-labs/ubik/pkg/capability"
)

// rule maps a request pattern to capability tags and/or the filesystem flag.
// All matching rules' effects are unioned; there is no early exit, so rule
// order carries no precedence.
type rule struct {
	pattern    *regexp.Regexp
	tags       []capability.Tag
	filesystem bool
}

// Patterns are matched against the lower-cased request text.
var rules = []rule{
	// Gmail
	{pattern: regexp.MustCompile(`^\s*(check|read|show|get|view) (my )?(email|emails|gmail|inbox|messages)\b`), tags: []capability.Tag{capability.Gmail}},
	{pattern: regexp.MustCompile(`\b(unread|new) emails?\b`), tags: []capability.Tag{capability.Gmail}},

	// Calendar
	{pattern: regexp.MustCompile(`\b(calendar|schedule|agenda|appointments?|events?|meetings?)\b`), tags: []capability.Tag{capability.Calendar}},
	{pattern: regexp.MustCompile(`\bwhat('?s| is) on (my )?(calendar|schedule)`), tags: []capability.Tag{capability.Calendar}},
	{pattern: regexp.MustCompile(`\b(add|create|schedule) (a )?(event|meeting|appointment)\b`), tags: []capability.Tag{capability.Calendar}},

	// Weather
	{pattern: regexp.MustCompile(`\b(weather|forecast|temperature|humidity|rain|snow|wind|sunny)\b`), tags: []capability.Tag{capability.Weather}},
	{pattern: regexp.MustCompile(`\bhow is the weather (in )?.*`), tags: []capability.Tag{capability.Weather}},

	// Web search
	{pattern: regexp.MustCompile(`\b(search|find|look up|research|google|web) (for )?.*`), tags: []capability.Tag{capability.Search}},
	{pattern: regexp.MustCompile(`\b(who is|what is|where is) .*`), tags: []capability.Tag{capability.Search}},

	// Drive
	{pattern: regexp.MustCompile(`\b(drive|document|spreadsheet|doc|sheet|presentation|slide)\b`), tags: []capability.Tag{capability.Drive}},
	{pattern: regexp.MustCompile(`\b(open|create|edit|share) (a )?(doc|document|sheet|spreadsheet)\b`), tags: []capability.Tag{capability.Drive}},

	// Maps
	{pattern: regexp.MustCompile(`\b(map|maps|location|route|directions|navigate|distance)\b`), tags: []capability.Tag{capability.Maps}},
	{pattern: regexp.MustCompile(`\bhow (to|do i) get to .*`), tags: []capability.Tag{capability.Maps}},

	// Slack
	{pattern: regexp.MustCompile(`\b(slack|message|chat|channel|workspace|dm|direct message)\b`), tags: []capability.Tag{capability.Slack}},
	{pattern: regexp.MustCompile(`\b(send|post) (a )?(message|notification) (in|to) .*`), tags: []capability.Tag{capability.Slack}},

	// Filesystem trigger (no capability tag, only the flag)
	{pattern: regexp.MustCompile(`\b(file|files|folder|directory|document|save|store|download|upload|attach)\b`), filesystem: true},
}

// Route evaluates every rule against the lower-cased request text and unions
// the matches, then applies the contextual overrides. Pure and deterministic;
// no I/O. An empty result means "inconclusive", never "nothing needed".
func Route(text string) Selection {
	lower := strings.ToLower(text)

	tags := make(map[capability.Tag]struct{})
	needsFS := false

	for _, r := range rules {
		if !r.pattern.MatchString(lower) {
			continue
		}
		for _, tag := range r.tags {
			tags[tag] = struct{}{}
		}
		if r.filesystem {
			needsFS = true
		}
	}

	// Contextual overrides. These are the only two; do not extend them
	// speculatively.
	if strings.Contains(lower, "search") && strings.Contains(lower, "save") {
		tags[capability.Search] = struct{}{}
		needsFS = true
	}
	if _, ok := tags[capability.Weather]; ok {
		if strings.Contains(lower, "map") || strings.Contains(lower, "directions") {
			tags[capability.Maps] = struct{}{}
		}
	}

	return newSelection(tags, needsFS)
}
