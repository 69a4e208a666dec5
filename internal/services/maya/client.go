package maya

import (
	"context"
	"log/slog"
	"strconv"

	"dccpipe/internal/logging"
	"dccpipe/internal/services"
	"dccpipe/internal/services/command"
)

const toolName = "maya"

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom command runner (primarily for tests).
func WithRunner(runner command.Runner) Option {
	return func(c *Client) {
		if runner != nil {
			c.adapter.Runner = runner
		}
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.adapter.Logger = logging.NewComponentLogger(logger, toolName)
	}
}

// Client wraps mayapy adapter invocations.
type Client struct {
	adapter *command.Adapter
}

// New constructs a client. prefix is the configured extra arguments followed
// by the adapter script path.
func New(python string, prefix []string, marker string, opts ...Option) (*Client, error) {
	adapter, err := command.NewAdapter(toolName, python, prefix, marker)
	if err != nil {
		return nil, err
	}
	client := &Client{adapter: adapter}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExportUSD converts a Maya scene to USD.
func (c *Client) ExportUSD(ctx context.Context, req command.ExportRequest) error {
	return c.adapter.ExportUSD(ctx, req)
}

// RenderRequest describes one Arnold frame.
type RenderRequest struct {
	Scene       string
	ProjectName string
	Output      string
	Frame       int
	Ext         string
	Camera      string
}

// Render renders a single frame with Arnold.
func (c *Client) Render(ctx context.Context, req RenderRequest) error {
	if req.Scene == "" || req.Output == "" {
		return services.Wrap(services.ErrInvalidConfiguration, toolName, "render", "scene and output required", nil)
	}
	frame := strconv.Itoa(req.Frame)
	args := []string{
		"--file", req.Scene,
		"--scene", req.ProjectName,
		"--outputr", req.Output,
		"--startf", frame,
		"--endf", frame,
		"--ext", req.Ext,
	}
	if req.Camera != "" {
		args = append(args, "--cam", req.Camera)
	}
	_, err := c.adapter.Invoke(ctx, "render", args...)
	return err
}
