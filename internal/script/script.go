// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package script calls the Apps Script web app that maintains the shared
// print list: clearing it, appending a fresh template block, and reserving
// the next block index.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/printlist/internal/httputil"
	"github.com/pdiddy/printlist/pkg/types"
)

const (
	clearedToken = "CLEARED"
	copiedToken  = "TEMPLATE COPIED"

	maxBody = 64 << 10
)

var (
	// ErrUnexpectedResponse marks a reply without the expected success token.
	ErrUnexpectedResponse = errors.New("unexpected script response")

	// ErrNotConfigured is returned when the endpoint for an action is empty.
	ErrNotConfigured = errors.New("script endpoint not configured")
)

// ResponseError carries the status and body of a rejected reply.
type ResponseError struct {
	Action string
	Status int
	Body   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Action, e.Status, e.Body)
}

func (e *ResponseError) Unwrap() error {
	return ErrUnexpectedResponse
}

// Client talks to the script endpoints.
type Client struct {
	cfg  types.ScriptConfig
	http *http.Client
}

// NewClient returns a client for cfg. A nil httpClient uses a client with
// cfg.Timeout.
func NewClient(cfg types.ScriptConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Clear empties the print list. The endpoint answers "CLEARED".
func (c *Client) Clear(ctx context.Context) error {
	status, body, err := c.post(ctx, "clear", c.cfg.ClearURL)
	if err != nil {
		return err
	}
	if status != http.StatusOK || strings.TrimSpace(body) != clearedToken {
		return &ResponseError{Action: "clear", Status: status, Body: body}
	}
	return nil
}

// CopyTemplate appends a fresh template block. The endpoint answers with a
// message containing "TEMPLATE COPIED".
func (c *Client) CopyTemplate(ctx context.Context) error {
	status, body, err := c.post(ctx, "copy", c.cfg.CopyURL)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !strings.Contains(body, copiedToken) {
		return &ResponseError{Action: "copy", Status: status, Body: body}
	}
	return nil
}

// AllocateBlock reserves the next block and returns its zero-based index.
// The endpoint serialises allocations, so concurrent callers get distinct
// indices.
func (c *Client) AllocateBlock(ctx context.Context) (int, error) {
	status, body, err := c.post(ctx, "allocate", c.cfg.AllocateURL)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, &ResponseError{Action: "allocate", Status: status, Body: body}
	}
	idx, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil || idx < 0 {
		return 0, &ResponseError{Action: "allocate", Status: status, Body: body}
	}
	return idx, nil
}

func (c *Client) post(ctx context.Context, action, url string) (int, string, error) {
	if url == "" {
		return 0, "", fmt.Errorf("%s: %w", action, ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("%s: building request: %w", action, err)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("%s: reading response: %w", action, err)
	}
	return resp.StatusCode, string(data), nil
}
