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

// Package capability defines the closed set of capability tags the assistant
// can route to, and the static registry mapping each tag to its remote
// actions and authorization requirement.
package capability

// Tag identifies a capability from the fixed, closed vocabulary.
type Tag string

// The closed capability vocabulary. Tags used anywhere downstream must exist
// in the registry or be dropped with a warning.
const (
	Gmail    Tag = "gmail"
	Calendar Tag = "googlecalendar"
	Weather  Tag = "weather"
	Search   Tag = "composio_search"
	Drive    Tag = "googledrive"
	Maps     Tag = "google_maps"
	Slack    Tag = "slack"
)

// Spec describes one capability: the provider-side app it maps to, the remote
// action names its handler is allowed to call, and whether an OAuth-backed
// account link is required before a handler may be built for it.
type Spec struct {
	// App is the provider-side app name ("weather" routes to "weathermap").
	App string

	// Actions are the remote action names bound to this capability's handler.
	Actions []string

	// RequiresAuth is true for OAuth-backed capabilities.
	RequiresAuth bool
}

var registry = map[Tag]Spec{
	Gmail: {
		App: "gmail",
		Actions: []string{
			"GMAIL_FETCH_EMAILS",
			"GMAIL_SEND_EMAIL",
			"GMAIL_CREATE_EMAIL_DRAFT",
			"GMAIL_GET_ATTACHMENT",
			"GMAIL_ADD_LABEL_TO_EMAIL",
		},
		RequiresAuth: true,
	},
	Calendar: {
		App: "googlecalendar",
		Actions: []string{
			"GOOGLECALENDAR_FIND_EVENT",
			"GOOGLECALENDAR_CREATE_EVENT",
			"GOOGLECALENDAR_UPDATE_EVENT",
			"GOOGLECALENDAR_DELETE_EVENT",
			"GOOGLECALENDAR_FIND_FREE_SLOTS",
		},
		RequiresAuth: true,
	},
	Weather: {
		App: "weathermap",
		Actions: []string{
			"WEATHERMAP_WEATHER",
			"WEATHERMAP_FORECAST",
		},
		RequiresAuth: false,
	},
	Search: {
		App: "composio_search",
		Actions: []string{
			"COMPOSIO_SEARCH_SEARCH",
			"COMPOSIO_SEARCH_NEWS_SEARCH",
			"COMPOSIO_SEARCH_IMAGE_SEARCH",
		},
		RequiresAuth: false,
	},
	Drive: {
		App: "googledrive",
		Actions: []string{
			"GOOGLEDRIVE_FIND_FILE",
			"GOOGLEDRIVE_CREATE_FILE_FROM_TEXT",
			"GOOGLEDRIVE_DOWNLOAD_FILE",
			"GOOGLEDRIVE_ADD_FILE_SHARING_PREFERENCE",
		},
		RequiresAuth: true,
	},
	Maps: {
		App: "google_maps",
		Actions: []string{
			"GOOGLE_MAPS_TEXT_SEARCH",
			"GOOGLE_MAPS_GET_DIRECTION",
			"GOOGLE_MAPS_DISTANCE_MATRIX",
			"GOOGLE_MAPS_NEARBY_SEARCH",
		},
		RequiresAuth: true,
	},
	Slack: {
		App: "slack",
		Actions: []string{
			"SLACK_SEND_MESSAGE",
			"SLACK_LIST_ALL_CHANNELS",
			"SLACK_SEARCH_MESSAGES",
		},
		RequiresAuth: true,
	},
}

// Lookup resolves a tag to its spec. Unknown tags resolve to (zero, false)
// and must be dropped by callers with a warning, never a fatal error.
func Lookup(tag Tag) (Spec, bool) {
	spec, ok := registry[tag]
	return spec, ok
}

// All returns every known tag. Order is unspecified.
func All() []Tag {
	tags := make([]Tag, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	return tags
}

// OAuthApps returns the tags that require an account link, in catalog order.
func OAuthApps() []Tag {
	return []Tag{Gmail, Calendar, Drive, Slack, Maps}
}

// NoAuthApps returns the tags usable without an account link, in catalog order.
func NoAuthApps() []Tag {
	return []Tag{Weather, Search}
}
