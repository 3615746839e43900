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
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Client is a JSON-RPC client for one MCP server connection.
type Client struct {
	transport Transport
	logger    *zap.Logger

	initialized bool
	serverInfo  Implementation

	nextID    int64
	pending   map[string]chan *Response
	pendingMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// ClientConfig configures an MCP client.
type ClientConfig struct {
	Transport Transport
	Logger    *zap.Logger
}

// NewClient creates a client over the given transport and starts its
// receive loop.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		transport: config.Transport,
		logger:    config.Logger,
		pending:   make(map[string]chan *Response),
		ctx:       ctx,
		cancel:    cancel,
	}

	c.wg.Add(1)
	go c.receiveLoop()
	return c
}

// Initialize performs the MCP handshake and sends the initialized
// notification.
func (c *Client) Initialize(ctx context.Context, clientInfo Implementation) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return fmt.Errorf("already initialized")
	}
	c.mu.Unlock()

	params, err := json.Marshal(InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo:      clientInfo,
	})
	if err != nil {
		return err
	}

	resp, err := c.call(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("failed to parse initialize result: %w", err)
	}

	if result.ProtocolVersion != ProtocolVersion {
		return fmt.Errorf("protocol version mismatch: client=%s server=%s",
			ProtocolVersion, result.ProtocolVersion)
	}

	c.mu.Lock()
	c.initialized = true
	c.serverInfo = result.ServerInfo
	c.mu.Unlock()

	c.logger.Debug("MCP client initialized",
		zap.String("server", result.ServerInfo.Name),
		zap.String("version", result.ServerInfo.Version),
		zap.String("protocol", result.ProtocolVersion),
	)

	// Notifications carry no ID and expect no response.
	notification, err := json.Marshal(Request{
		JSONRPC: JSONRPCVersion,
		Method:  "notifications/initialized",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal initialized notification: %w", err)
	}
	if err := c.transport.Send(ctx, notification); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}
	return nil
}

// ServerInfo returns the server implementation info from the handshake.
func (c *Client) ServerInfo() Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// ListTools returns the server's tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, "tools/list", json.RawMessage(`{}`))
	if err != nil {
		return nil, fmt.Errorf("tools/list failed: %w", err)
	}

	var result ToolListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tool list: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a server tool. A result with IsError set is returned as
// a Go error carrying the concatenated text content.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallToolResult, error) {
	params, err := json.Marshal(CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool arguments: %w", err)
	}

	resp, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return nil, fmt.Errorf("tools/call %s failed: %w", name, err)
	}

	var result CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tool result: %w", err)
	}

	if result.IsError {
		return &result, fmt.Errorf("tool %s failed: %s", name, result.TextContent())
	}
	return &result, nil
}

// TextContent concatenates the text items of a tool result.
func (r *CallToolResult) TextContent() string {
	var b strings.Builder
	for _, content := range r.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	return b.String()
}

// Close tears down the connection and the server process.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	err := c.transport.Close()
	c.wg.Wait()
	return err
}

// call sends one request and blocks for its response.
func (c *Client) call(ctx context.Context, method string, params json.RawMessage) (*Response, error) {
	id := NumericID(atomic.AddInt64(&c.nextID, 1))
	req := Request{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}

	respChan := make(chan *Response, 1)
	key := id.String()

	c.pendingMu.Lock()
	c.pending[key] = respChan
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := c.transport.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, fmt.Errorf("client closed")
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp, nil
	}
}

// receiveLoop dispatches incoming responses to their pending callers.
// Server-initiated requests and notifications are logged and dropped.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	for {
		data, err := c.transport.Receive(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Debug("MCP receive loop ended", zap.Error(err))
			}
			return
		}
		if len(data) == 0 {
			continue
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil || (resp.Result == nil && resp.Error == nil) {
			var req Request
			if err := json.Unmarshal(data, &req); err == nil && req.Method != "" {
				c.logger.Debug("ignoring server-initiated message",
					zap.String("method", req.Method))
				continue
			}
			c.logger.Warn("dropping unparseable MCP message")
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID.String()]
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Warn("response for unknown request",
				zap.String("id", resp.ID.String()))
			continue
		}
		ch <- &resp
	}
}

// Connect spawns the server command, performs the handshake, and returns a
// ready client. The caller owns the returned client and must Close it.
func Connect(ctx context.Context, config StdioConfig, clientInfo Implementation) (*Client, error) {
	transport, err := NewStdioTransport(config)
	if err != nil {
		return nil, fmt.Errorf("failed to start MCP server: %w", err)
	}

	client := NewClient(ClientConfig{Transport: transport, Logger: config.Logger})

	handshakeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Initialize(handshakeCtx, clientInfo); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
