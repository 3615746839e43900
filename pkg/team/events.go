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

// Package team assembles capability handlers for a request, runs the
// coordinated conversation against the model, and streams execution events
// to the caller.
package team

// Event is one item in a run's event stream. The variant set is closed:
// consumers switch over the concrete types and need no default branch for
// forward compatibility.
type Event interface {
	isEvent()
}

// ContentEvent carries a chunk of assistant output text. Chunks arrive in
// order and concatenate to the full response.
type ContentEvent struct {
	Text string
}

// ToolStartedEvent signals that a handler began executing a tool.
type ToolStartedEvent struct {
	Handler string
	Tool    string
}

// ErrorEvent carries a run-level failure. The stream ends after an error.
type ErrorEvent struct {
	Err error
}

func (ContentEvent) isEvent()     {}
func (ToolStartedEvent) isEvent() {}
func (ErrorEvent) isEvent()       {}
