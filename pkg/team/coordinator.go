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
	"io"
	"strings"

	"go.uber.org/zap"
)

// Coordinator drains a run's event stream. Content is forwarded to the sink
// the moment it arrives; tool starts are logged; an error ends the stream
// and is returned after any already-emitted output.
type Coordinator struct {
	sink   io.Writer
	logger *zap.Logger
}

// NewCoordinator creates a coordinator writing content to sink.
func NewCoordinator(sink io.Writer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{sink: sink, logger: logger}
}

// Drain consumes events until the stream closes. It returns the full
// response text and the run error, if any. When an error arrives after
// partial output, the partial output stands and the error is still returned.
func (c *Coordinator) Drain(events <-chan Event) (string, error) {
	var content strings.Builder
	var runErr error

	for event := range events {
		switch e := event.(type) {
		case ContentEvent:
			content.WriteString(e.Text)
			if _, err := io.WriteString(c.sink, e.Text); err != nil {
				c.logger.Warn("failed to write content to sink", zap.Error(err))
			}

		case ToolStartedEvent:
			c.logger.Debug("tool started",
				zap.String("handler", e.Handler),
				zap.String("tool", e.Tool))

		case ErrorEvent:
			runErr = e.Err
		}
	}

	return content.String(), runErr
}
