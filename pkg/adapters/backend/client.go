// Package backend provides an HTTP client for the run execution backend.
// It implements ports.RunService: a run submission returns the backend's
// raw event stream body, which the runner decodes frame by frame.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canopyhq/canopy/pkg/ports"
)

const defaultRunsPath = "/api/runs"

// Client talks to the run backend over HTTP.
type Client struct {
	baseURL string
	path    string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The default has no
// overall timeout: run streams are long-lived and bounded by context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sets a bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithRunsPath overrides the run submission path.
func WithRunsPath(path string) Option {
	return func(c *Client) {
		c.path = path
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    defaultRunsPath,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type runPayload struct {
	Input       string `json:"input"`
	ResumeRunID string `json:"resume_run_id,omitempty"`
	SpecID      string `json:"spec_id,omitempty"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateRun submits a run and returns the backend's event stream body.
// The caller owns the body and must close it; canceling ctx unblocks any
// in-flight read.
func (c *Client) CreateRun(ctx context.Context, req ports.RunRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(runPayload{
		Input:       req.Input,
		ResumeRunID: req.ResumeRunID,
		SpecID:      req.SpecID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("run submission failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.decodeError(resp)
	}

	return resp.Body, nil
}

// decodeError turns a non-2xx response into an error, preferring the
// backend's own message when the body carries one.
func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		msg := payload.Error
		if msg == "" {
			msg = payload.Message
		}
		if msg != "" {
			return fmt.Errorf("backend rejected run (%s): %s", resp.Status, msg)
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return fmt.Errorf("backend rejected run (%s): %s", resp.Status, text)
	}
	return fmt.Errorf("backend rejected run (%s)", resp.Status)
}

// Healthy reports whether the backend answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: %s", resp.Status)
	}
	return nil
}
