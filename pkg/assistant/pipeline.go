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

// Package assistant wires selection, composition, and execution into the
// end-to-end query pipeline.
package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/teradata-labs/ubik/pkg/memory"
	"github.com/teradata-labs/ubik/pkg/selector"
	"github.com/teradata-labs/ubik/pkg/team"
	"github.com/teradata-labs/ubik/pkg/types"
	"go.uber.org/zap"
)

// Pipeline runs free-text requests end to end: select capabilities, compose
// handlers, execute, persist. One pipeline serves many requests.
type Pipeline struct {
	selector *selector.Hybrid
	composer *team.Composer
	provider types.LLMProvider
	store    *memory.Store
	sink     io.Writer
	userID   string
	logger   *zap.Logger
}

// Config configures the pipeline.
type Config struct {
	Selector *selector.Hybrid
	Composer *team.Composer
	Provider types.LLMProvider
	Store    *memory.Store // optional
	Sink     io.Writer
	UserID   string
	Logger   *zap.Logger
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pipeline{
		selector: cfg.Selector,
		composer: cfg.Composer,
		provider: cfg.Provider,
		store:    cfg.Store,
		sink:     cfg.Sink,
		userID:   cfg.UserID,
		logger:   cfg.Logger,
	}
}

// Query processes one request. The response streams to the sink as it is
// generated; the stored conversation is updated afterward. Errors come back
// as a single value; the pipeline itself always survives to serve the next
// request.
func (p *Pipeline) Query(ctx context.Context, request string) error {
	request = strings.TrimSpace(request)
	if request == "" {
		return fmt.Errorf("empty request")
	}

	requestID := uuid.NewString()
	logger := p.logger.With(zap.String("request_id", requestID))

	sel := p.selector.Select(ctx, request)
	logger.Debug("capabilities selected", zap.String("selection", sel.String()))
	if summary := sel.String(); summary != "" {
		fmt.Fprintf(p.sink, "[agents: %s]\n", summary)
	}

	handlers := p.composer.Compose(ctx, sel)
	if len(handlers) == 0 {
		logger.Info("no handlers available, answering directly")
	}

	tm := team.New(team.Config{
		Handlers: handlers,
		Provider: p.provider,
		Store:    p.store,
		Logger:   logger,
	})
	defer func() {
		if err := tm.Close(); err != nil {
			logger.Warn("handler cleanup failed", zap.Error(err))
		}
	}()

	events := tm.Run(ctx, p.userID, request)
	response, runErr := team.NewCoordinator(p.sink, logger).Drain(events)
	if response != "" && !strings.HasSuffix(response, "\n") {
		fmt.Fprintln(p.sink)
	}

	p.persist(ctx, request, response, logger)

	if runErr != nil {
		return fmt.Errorf("request %s failed: %w", requestID, runErr)
	}
	return nil
}

// persist appends the exchange to conversation memory. Storage failures are
// logged, never surfaced.
func (p *Pipeline) persist(ctx context.Context, request, response string, logger *zap.Logger) {
	if p.store == nil {
		return
	}
	if err := p.store.Append(ctx, p.userID, "user", request); err != nil {
		logger.Warn("failed to store user turn", zap.Error(err))
		return
	}
	if response != "" {
		if err := p.store.Append(ctx, p.userID, "assistant", response); err != nil {
			logger.Warn("failed to store assistant turn", zap.Error(err))
		}
	}
}

// Warmup precomputes classifier results for common requests.
func (p *Pipeline) Warmup(ctx context.Context) {
	p.selector.Warmup(ctx)
}
