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
package team

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teradata-labs/ubik/pkg/actions"
)

// Handler is one capability-scoped member of the team: a named role, its
// instructions, and the actions it may call. Handlers are assembled per
// request and discarded afterward.
type Handler struct {
	// Name identifies the handler in logs and the team charter.
	Name string

	// Role is the one-line job description shown in the system prompt.
	Role string

	// Instructions are the handler-specific system prompt section.
	Instructions string

	// Actions are the tools this handler contributes to the team.
	Actions []actions.Action

	// cleanup tears down handler-owned resources (e.g. a subprocess).
	cleanup func() error
}

// Close releases handler-owned resources. Safe to call on handlers without
// any.
func (h *Handler) Close() error {
	if h.cleanup == nil {
		return nil
	}
	return h.cleanup()
}

// timeContext renders the current local time and IANA timezone for handler
// instructions, so the model resolves "tomorrow" and "9am" correctly.
func timeContext(now time.Time) string {
	zone := localTimezone()
	return fmt.Sprintf("Current local time: %s (%s)",
		now.Format("Monday, January 2, 2006 at 3:04 PM"), zone)
}

// localTimezone returns the IANA timezone name, resolving the /etc/localtime
// symlink when the TZ environment variable is unset. Falls back to the
// numeric zone offset.
func localTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		// Typical target: /usr/share/zoneinfo/Europe/Berlin
		if idx := strings.Index(target, "zoneinfo/"); idx >= 0 {
			return target[idx+len("zoneinfo/"):]
		}
		return filepath.Base(target)
	}
	zone, _ := time.Now().Zone()
	return zone
}

// handlerInstructions builds the standard instruction block for a capability
// handler.
func handlerInstructions(role, guidance string) string {
	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\n\n")
	if guidance != "" {
		b.WriteString(guidance)
		b.WriteString("\n\n")
	}
	b.WriteString(timeContext(time.Now()))
	return b.String()
}
