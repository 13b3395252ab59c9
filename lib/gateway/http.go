// Copyright 2026 The Flightdeck Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/flightdeck-foundation/flightdeck/lib/schema"
)

// Config holds configuration for creating an HTTP gateway Client.
type Config struct {
	// BaseURL is the backend's root URL (e.g.,
	// "https://pipeline.internal"). Required.
	BaseURL string

	// Token is the bearer token attached to every request. Optional;
	// development backends run unauthenticated.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Spool, when set, archives every submitted launch body before it
	// goes on the wire.
	Spool *Spool
}

// Client implements PresetSource and Launcher over the backend's JSON
// API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
	spool      *Spool
}

var (
	_ PresetSource = (*Client)(nil)
	_ Launcher     = (*Client)(nil)
)

// NewClient creates an HTTP gateway client from the given
// configuration.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("gateway: BaseURL is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
		spool:      config.Spool,
	}, nil
}

// FetchPreset requests the workflow document for a preset.
func (c *Client) FetchPreset(ctx context.Context, request PresetRequest) (*schema.WorkflowContent, error) {
	query := url.Values{}
	query.Set("workflow", request.Workflow)
	query.Set("project", request.Project)
	if request.ApprovalTicket != "" {
		query.Set("approval_ticket", request.ApprovalTicket)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/presets?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: building preset request: %w", err)
	}
	c.authorize(httpRequest)

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("gateway: fetching preset %s/%s: %w", request.Project, request.Workflow, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway: preset %s/%s: %s",
			request.Project, request.Workflow, readMessage(response))
	}

	var content schema.WorkflowContent
	if err := json.NewDecoder(response.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("gateway: decoding preset %s/%s: %w", request.Project, request.Workflow, err)
	}
	return &content, nil
}

// Launch submits the serialized run request body. The body is spooled
// (when a spool is configured) and transmitted byte-for-byte. A
// non-2xx response becomes a *RejectionError with the backend's
// message.
func (c *Client) Launch(ctx context.Context, body []byte, debug bool) (string, error) {
	if c.spool != nil {
		digest, err := c.spool.Write(body)
		if err != nil {
			// Spool failure must not block the launch: the archive is
			// an audit convenience, not part of the submission.
			c.logger.Warn("payload spool write failed", "error", err)
		} else {
			c.logger.Info("submission payload spooled", "digest", digest)
		}
	}

	launchURL := c.baseURL + "/api/v1/runs"
	if debug {
		launchURL += "?debug=true"
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, launchURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gateway: building launch request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	c.authorize(httpRequest)

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return "", fmt.Errorf("gateway: launching run: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", &RejectionError{Status: response.StatusCode, Message: readMessage(response)}
	}

	var accepted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(response.Body).Decode(&accepted); err != nil {
		return "", fmt.Errorf("gateway: decoding launch response: %w", err)
	}
	if accepted.TaskID == "" {
		return "", fmt.Errorf("gateway: launch response carried no task id")
	}
	return accepted.TaskID, nil
}

func (c *Client) authorize(request *http.Request) {
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// readMessage extracts the backend's user-facing message from an
// error response: the "message" field of a JSON body when present,
// the raw body otherwise, the HTTP status as a last resort.
func readMessage(response *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return response.Status
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return string(bytes.TrimSpace(body))
}
