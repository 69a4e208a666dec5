// Package daemonctl is the CLI's HTTP client for a running dccpiped.
package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"dccpipe/internal/api"
	"dccpipe/internal/config"
	"dccpipe/internal/preflight"
)

// ErrDaemonNotRunning indicates that nothing answered on the daemon address.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client talks to the daemon API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the daemon configured in cfg.
func New(cfg *config.Config) *Client {
	return NewWithURL(preflight.DaemonURL(cfg.API.Bind), cfg.API.Token)
}

// NewWithURL builds a client for an explicit base URL.
func NewWithURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

// Jobs fetches job history, optionally filtered by project and status.
func (c *Client) Jobs(ctx context.Context, project string, statuses ...string) (api.JobListResponse, error) {
	query := url.Values{}
	if project != "" {
		query.Set("project", project)
	}
	for _, status := range statuses {
		query.Add("status", status)
	}
	var resp api.JobListResponse
	err := c.get(ctx, "/api/jobs", query, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("%w at %s", ErrDaemonNotRunning, c.baseURL)
		}
		return fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body api.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, body.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}
