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

// Package composio implements the Composio REST collaborators the assistant
// core depends on: the authorization oracle for OAuth-backed capabilities,
// the connection management pass-through for the CLI, and the opaque action
// executor that handlers call through.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the Composio API endpoint.
	DefaultBaseURL = "https://backend.composio.dev/api"
	// DefaultTimeout is the default HTTP timeout for Composio calls.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the Composio API for one entity (user).
type Client struct {
	apiKey     string
	entityID   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for the Composio client.
type Config struct {
	APIKey   string
	EntityID string // Stable user identifier (e.g. an email address)
	BaseURL  string // Default: https://backend.composio.dev/api
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewClient creates a Composio client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Client{
		apiKey:     config.APIKey,
		entityID:   config.EntityID,
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
	}
}

// EntityID returns the entity this client is scoped to.
func (c *Client) EntityID() string {
	return c.entityID
}

// Connection is one linked third-party account. Upstream responses name the
// app field inconsistently across API versions; the accessor methods hide
// that behind one normalized shape.
type Connection struct {
	ID            string `json:"id"`
	AccountID     string `json:"connectedAccountId"`
	AppNameCamel  string `json:"appName"`
	AppNameSnake  string `json:"app_name"`
	AppNameLegacy string `json:"app"`
	Status        string `json:"status"`
}

// App returns the normalized, lower-cased app name.
func (c Connection) App() string {
	for _, name := range []string{c.AppNameCamel, c.AppNameSnake, c.AppNameLegacy} {
		if name != "" {
			return strings.ToLower(name)
		}
	}
	return ""
}

// Active reports whether the connection is usable.
func (c Connection) Active() bool {
	switch strings.ToLower(c.Status) {
	case "active", "connected":
		return true
	}
	return false
}

// ConnectionID returns whichever account identifier the API populated.
func (c Connection) ConnectionID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.AccountID
}

// Connections lists the entity's linked accounts.
func (c *Client) Connections(ctx context.Context) ([]Connection, error) {
	endpoint := fmt.Sprintf("%s/v1/connectedAccounts?user_uuid=%s",
		c.baseURL, url.QueryEscape(c.entityID))

	var out struct {
		Items []Connection `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return out.Items, nil
}

// IsAuthorized reports whether the entity has an active connection for the
// given app. Any transport or decode failure is treated as "not authorized"
// rather than propagated: a capability is silently omitted, never fatal here.
func (c *Client) IsAuthorized(ctx context.Context, app string) bool {
	connections, err := c.Connections(ctx)
	if err != nil {
		c.logger.Warn("connection check failed, treating as not authorized",
			zap.String("app", app), zap.Error(err))
		return false
	}
	for _, conn := range connections {
		if conn.App() == strings.ToLower(app) && conn.Active() {
			return true
		}
	}
	return false
}

// Initiate starts an OAuth connection for an app and returns the redirect
// URL the user must visit.
func (c *Client) Initiate(ctx context.Context, app string) (string, error) {
	endpoint := c.baseURL + "/v1/connectedAccounts"
	body := map[string]string{
		"appName":  app,
		"userUuid": c.entityID,
	}

	var out struct {
		RedirectURL string `json:"redirectUrl"`
	}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return "", fmt.Errorf("failed to initiate %s connection: %w", app, err)
	}
	if out.RedirectURL == "" {
		return "", fmt.Errorf("no auth URL returned for %s", app)
	}
	return out.RedirectURL, nil
}

// Execute runs a named Composio action with the given parameters and returns
// the provider's structured result data.
func (c *Client) Execute(ctx context.Context, action string, params map[string]interface{}) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/v2/actions/%s/execute", c.baseURL, url.PathEscape(action))
	body := map[string]interface{}{
		"entityId": c.entityID,
		"input":    params,
	}

	var out struct {
		Successful bool                   `json:"successful"`
		Error      string                 `json:"error"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, fmt.Errorf("action %s failed: %w", action, err)
	}
	if !out.Successful && out.Error != "" {
		return nil, fmt.Errorf("action %s failed: %s", action, out.Error)
	}
	return out.Data, nil
}

// doJSON performs one JSON request/response round trip.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
