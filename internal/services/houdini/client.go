package houdini

import (
	"context"
	"log/slog"
	"strconv"

	"dccpipe/internal/logging"
	"dccpipe/internal/services"
	"dccpipe/internal/services/command"
)

const toolName = "houdini"

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

// Client wraps hython adapter invocations.
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

// ExportUSD converts a Houdini scene to USD.
func (c *Client) ExportUSD(ctx context.Context, req command.ExportRequest) error {
	return c.adapter.ExportUSD(ctx, req)
}

// FrameRequest describes one Karma frame.
type FrameRequest struct {
	Scene  string
	Output string
	Frame  int
	Width  int
	Height int
	Camera string
	Light  string
}

// RenderFrame renders a single frame with Karma.
func (c *Client) RenderFrame(ctx context.Context, req FrameRequest) error {
	if req.Scene == "" || req.Output == "" {
		return services.Wrap(services.ErrInvalidConfiguration, toolName, "render frame", "scene and output required", nil)
	}
	args := []string{
		"--scene", req.Scene,
		"--output", req.Output,
		"--frame", strconv.Itoa(req.Frame),
		"--width", strconv.Itoa(req.Width),
		"--height", strconv.Itoa(req.Height),
	}
	if req.Camera != "" {
		args = append(args, "--camera", req.Camera)
	}
	if req.Light != "" {
		args = append(args, "--light", req.Light)
	}
	_, err := c.adapter.Invoke(ctx, "render-frame", args...)
	return err
}
