package workflow

import (
	"fmt"
	"log/slog"

	"dccpipe/internal/config"
	"dccpipe/internal/logging"
	"dccpipe/internal/project"
	"dccpipe/internal/render"
	"dccpipe/internal/services/command"
	"dccpipe/internal/services/houdini"
	"dccpipe/internal/services/maya"
)

// Clients bundles the DCC adapter clients built from configuration.
type Clients struct {
	Maya    *maya.Client
	Houdini *houdini.Client
}

// NewClients builds both adapter clients. A nil runner selects the exec
// runner, which streams adapter output to the debug log.
func NewClients(cfg *config.Config, logger *slog.Logger, runner command.Runner) (Clients, error) {
	if runner == nil {
		toolLogger := logging.NewComponentLogger(logger, "adapter")
		runner = command.ExecRunner{OnLine: func(stream, line string) {
			toolLogger.Debug(line, logging.String("stream", stream))
		}}
	}
	mayaArgs, err := cfg.Maya.Args()
	if err != nil {
		return Clients{}, fmt.Errorf("maya args: %w", err)
	}
	houdiniArgs, err := cfg.Houdini.Args()
	if err != nil {
		return Clients{}, fmt.Errorf("houdini args: %w", err)
	}
	mayaClient, err := maya.New(cfg.Maya.Python, mayaArgs, cfg.Maya.SuccessMarker,
		maya.WithRunner(runner), maya.WithLogger(logger))
	if err != nil {
		return Clients{}, err
	}
	houdiniClient, err := houdini.New(cfg.Houdini.Python, houdiniArgs, cfg.Houdini.SuccessMarker,
		houdini.WithRunner(runner), houdini.WithLogger(logger))
	if err != nil {
		return Clients{}, err
	}
	return Clients{Maya: mayaClient, Houdini: houdiniClient}, nil
}

// RenderTools exposes the clients as render backends.
func (c Clients) RenderTools() render.Tools {
	return render.Tools{Arnold: c.Maya, Karma: c.Houdini}
}

// NewWorkspace builds the project workspace configured by cfg, converting
// Maya and Houdini scenes through clients.
func NewWorkspace(cfg *config.Config, clients Clients, logger *slog.Logger) *project.Workspace {
	return project.NewWorkspace(cfg.Paths.RootDir,
		project.WithConverter(project.FileTypeMaya, clients.Maya),
		project.WithConverter(project.FileTypeHoudini, clients.Houdini),
		project.WithCreatedBy(cfg.Project.CreatedBy),
		project.WithConvertRange(cfg.Project.ConvertStartFrame, cfg.Project.ConvertEndFrame),
		project.WithKeepSourceScene(cfg.Project.KeepSourceScene),
		project.WithLogger(logger),
	)
}
