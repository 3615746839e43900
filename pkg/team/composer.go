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
	"context"
	"fmt"

	"github.com/teradata-labs/ubik/pkg/actions"
	"github.com/teradata-labs/ubik/pkg/capability"
	"github.com/teradata-labs/ubik/pkg/composio"
	"github.com/teradata-labs/ubik/pkg/selector"
	"go.uber.org/zap"
)

// AuthOracle answers whether the user holds an active account link for a
// provider app. Implementations must answer false on any doubt; they never
// return errors.
type AuthOracle interface {
	IsAuthorized(ctx context.Context, app string) bool
}

// Composer turns a selection into a set of ready handlers. Each tag is
// processed independently: a missing registry entry, a failed authorization
// check, or a handler build error drops that tag with a warning and never
// affects its siblings.
type Composer struct {
	oracle   AuthOracle
	composio *composio.Client
	logger   *zap.Logger

	// Overridable for testing and alternative tool sources.
	buildHandler    func(tag capability.Tag, spec capability.Spec) (*Handler, error)
	buildFilesystem func(ctx context.Context) (*Handler, error)
}

// ComposerConfig configures handler composition.
type ComposerConfig struct {
	Oracle    AuthOracle
	Composio  *composio.Client
	Workspace string // filesystem handler working directory
	Logger    *zap.Logger
}

// NewComposer creates a composer.
func NewComposer(cfg ComposerConfig) *Composer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Composer{
		oracle:   cfg.Oracle,
		composio: cfg.Composio,
		logger:   cfg.Logger,
	}
	c.buildHandler = c.buildCapabilityHandler
	c.buildFilesystem = func(ctx context.Context) (*Handler, error) {
		return NewFilesystemHandler(ctx, FilesystemConfig{
			Workspace: cfg.Workspace,
			Logger:    cfg.Logger,
		})
	}
	return c
}

// Compose builds handlers for every selected tag. Zero handlers with a nil
// error is a legitimate outcome; the caller decides how to respond.
func (c *Composer) Compose(ctx context.Context, sel selector.Selection) []*Handler {
	var handlers []*Handler

	for _, tag := range sel.Tags {
		spec, ok := capability.Lookup(tag)
		if !ok {
			c.logger.Warn("unknown capability tag, skipping", zap.String("tag", string(tag)))
			continue
		}

		if spec.RequiresAuth && !c.oracle.IsAuthorized(ctx, spec.App) {
			c.logger.Warn("capability not authorized, skipping",
				zap.String("tag", string(tag)),
				zap.String("app", spec.App))
			continue
		}

		handler, err := c.buildHandler(tag, spec)
		if err != nil {
			c.logger.Warn("failed to build handler, skipping",
				zap.String("tag", string(tag)),
				zap.Error(err))
			continue
		}
		handlers = append(handlers, handler)
	}

	if sel.NeedsFilesystem {
		handler, err := c.buildFilesystem(ctx)
		if err != nil {
			// Degrade: the run proceeds with the remote handlers only.
			c.logger.Warn("filesystem handler unavailable, continuing without it",
				zap.Error(err))
		} else {
			handlers = append(handlers, handler)
		}
	}

	return handlers
}

// roleForTag gives each capability handler its one-line job description.
func roleForTag(tag capability.Tag) string {
	switch tag {
	case capability.Gmail:
		return "You handle email: reading, searching, drafting and sending Gmail messages."
	case capability.Calendar:
		return "You manage the user's Google Calendar: finding, creating and updating events."
	case capability.Weather:
		return "You answer weather questions using current conditions and forecasts."
	case capability.Search:
		return "You search the web and news for up-to-date information."
	case capability.Drive:
		return "You work with Google Drive files: finding, creating and sharing documents."
	case capability.Maps:
		return "You handle places, directions and travel times using Google Maps."
	case capability.Slack:
		return "You send and search Slack messages on the user's behalf."
	default:
		return fmt.Sprintf("You handle %s requests.", tag)
	}
}

// guidanceForTag returns the capability's operational notes for its system
// prompt section. Mutating actions take identifiers, not names; the notes
// steer the model to resolve them first.
func guidanceForTag(tag capability.Tag) string {
	switch tag {
	case capability.Gmail:
		return "Always fetch the email's message ID first and use it for read, reply,\n" +
			"label and delete operations. Use the GMAIL_GET_ATTACHMENT action to\n" +
			"retrieve attachments."
	case capability.Calendar:
		return "Never pass a timezone argument to GOOGLECALENDAR_FIND_EVENT; the\n" +
			"account's own timezone applies."
	case capability.Drive:
		return "Always fetch the file's ID first and use it for read, update, share\n" +
			"and move operations."
	case capability.Weather, capability.Maps:
		return "Use the user's local units and timezone in answers."
	default:
		return ""
	}
}

// buildCapabilityHandler wires a tag's remote actions into a handler.
func (c *Composer) buildCapabilityHandler(tag capability.Tag, spec capability.Spec) (*Handler, error) {
	if c.composio == nil {
		return nil, fmt.Errorf("no action client configured")
	}

	acts := make([]actions.Action, 0, len(spec.Actions))
	for _, name := range spec.Actions {
		acts = append(acts, composio.NewRemoteAction(c.composio, name, string(tag)))
	}

	return &Handler{
		Name:         string(tag),
		Role:         roleForTag(tag),
		Instructions: handlerInstructions(roleForTag(tag), guidanceForTag(tag)),
		Actions:      acts,
	}, nil
}
