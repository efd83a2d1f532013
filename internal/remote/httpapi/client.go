// Package httpapi is the HTTP transport to the remote transaction API. Every
// request carries the bearer token the session was started with.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/records"
	"finboard/internal/remote"
)

var _ remote.Store = (*Client)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote api: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("remote api: status %d", e.Code)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

func New(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("missing API base URL")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL scheme %q", u.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: u, token: opts.Token, http: hc}, nil
}

// Paths per kind, relative to the base URL.
func listPath(kind core.Kind) string { return "/api/v1/" + kind.String() + "/get" }
func createPath(kind core.Kind) string { return "/api/v1/" + kind.String() + "/add" }
func exportPath(kind core.Kind) string { return "/api/v1/" + kind.String() + "/downloadexcel" }
func deletePath(kind core.Kind, id string) string {
	return "/api/v1/" + kind.String() + "/" + url.PathEscape(id)
}

// List implements remote.Lister.
func (c *Client) List(ctx context.Context, kind core.Kind) (any, error) {
	resp, err := c.do(ctx, http.MethodGet, listPath(kind), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := records.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return payload, nil
}

// Create implements remote.Creator.
func (c *Client) Create(ctx context.Context, kind core.Kind, cand core.Candidate) error {
	body, err := json.Marshal(remote.CreateBody(kind, cand))
	if err != nil {
		return fmt.Errorf("marshal create body: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, createPath(kind), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Delete implements remote.Deleter.
func (c *Client) Delete(ctx context.Context, kind core.Kind, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, deletePath(kind, id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Export implements remote.Exporter. The body is returned as raw bytes.
func (c *Client) Export(ctx context.Context, kind core.Kind) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, exportPath(kind), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export body: %w", err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	u := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Remote API request failed",
			"method", method,
			"path", path,
			"error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	slog.DebugContext(ctx, "Remote API request completed",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return se
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		se.Message = body.Message
	}
	return se
}
