package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"dccpipe/internal/logging"
	"dccpipe/internal/services"
)

// Adapter invokes one DCC adapter script through its interpreter. Every call
// is "<python> <prefix...> <subcommand> <args...>" where prefix holds the
// configured extra arguments followed by the adapter path.
type Adapter struct {
	Tool   string
	Python string
	Prefix []string
	Marker string
	Runner Runner
	Logger *slog.Logger
}

// NewAdapter validates the interpreter and returns an Adapter backed by
// ExecRunner.
func NewAdapter(tool, python string, prefix []string, marker string) (*Adapter, error) {
	python = strings.TrimSpace(python)
	if python == "" {
		return nil, services.Wrap(services.ErrInvalidConfiguration, tool, "init", "interpreter required", nil)
	}
	if len(prefix) == 0 {
		return nil, services.Wrap(services.ErrInvalidConfiguration, tool, "init", "adapter script required", nil)
	}
	return &Adapter{
		Tool:   tool,
		Python: python,
		Prefix: slices.Clone(prefix),
		Marker: marker,
		Runner: ExecRunner{},
		Logger: logging.NewNop(),
	}, nil
}

// Argv returns the full argument list for subcommand.
func (a *Adapter) Argv(subcommand string, args ...string) []string {
	argv := make([]string, 0, len(a.Prefix)+1+len(args))
	argv = append(argv, a.Prefix...)
	argv = append(argv, subcommand)
	return append(argv, args...)
}

// Invoke runs subcommand and converts a non-zero exit into a ToolError.
func (a *Adapter) Invoke(ctx context.Context, subcommand string, args ...string) (Result, error) {
	if a == nil || a.Runner == nil {
		return Result{}, errors.New("adapter not configured")
	}
	argv := a.Argv(subcommand, args...)
	logger := logging.WithContext(ctx, a.Logger)
	logger.Debug("launching adapter", logging.Args(
		logging.String(logging.FieldCommand, a.Python),
		logging.Strings("argv", argv),
	)...)
	result, err := a.Runner.Run(ctx, a.Python, argv)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, a.Tool, subcommand, "launch "+a.Python, err)
	}
	if err := Check(a.Tool, result); err != nil {
		return result, err
	}
	return result, nil
}

// InvokeWithMarker runs subcommand and additionally requires the success
// marker on stdout.
func (a *Adapter) InvokeWithMarker(ctx context.Context, subcommand string, args ...string) (Result, error) {
	result, err := a.Invoke(ctx, subcommand, args...)
	if err != nil {
		return result, err
	}
	if !HasMarker(result.Stdout, a.Marker) {
		return result, services.Wrap(services.ErrExternalTool, a.Tool, subcommand,
			fmt.Sprintf("success marker %q missing from output", a.Marker), nil)
	}
	return result, nil
}

// ExportRequest describes a scene conversion to USD. Both DCC adapters share
// the export_usd contract.
type ExportRequest struct {
	ProjectDir string
	SceneName  string
	Source     string
	Output     string
	StartFrame int
	EndFrame   int
}

// ExportUSD runs the adapter's export_usd subcommand and requires the
// success marker.
func (a *Adapter) ExportUSD(ctx context.Context, req ExportRequest) error {
	if req.Source == "" || req.Output == "" {
		return services.Wrap(services.ErrInvalidConfiguration, a.Tool, "export usd", "source and output required", nil)
	}
	_, err := a.InvokeWithMarker(ctx, "export_usd",
		"--directory", req.ProjectDir,
		"--scene", req.SceneName,
		"--file", req.Source,
		"--outputf", req.Output,
		"--startf", strconv.Itoa(req.StartFrame),
		"--endf", strconv.Itoa(req.EndFrame),
	)
	return err
}
