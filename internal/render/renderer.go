package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dccpipe/internal/logging"
	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
	"dccpipe/internal/services/houdini"
	"dccpipe/internal/services/maya"
)

// ArnoldBackend renders one frame through the Maya adapter.
type ArnoldBackend interface {
	Render(ctx context.Context, req maya.RenderRequest) error
}

// KarmaBackend renders one frame through the Houdini adapter.
type KarmaBackend interface {
	RenderFrame(ctx context.Context, req houdini.FrameRequest) error
}

// Tools holds the adapter clients resolved from configuration at startup.
type Tools struct {
	Arnold ArnoldBackend
	Karma  KarmaBackend
}

// ProjectInfo is the part of a project the renderer needs.
type ProjectInfo struct {
	Name       string
	Dir        string
	SceneFiles metadata.SceneFiles
}

// ShotInfo identifies one frame to render.
type ShotInfo struct {
	Shot   string
	Camera string
	Frame  int
}

// Renderer dispatches single frames of one render version.
type Renderer struct {
	tools    Tools
	settings Settings
	project  ProjectInfo
	version  string
	logger   *slog.Logger
}

// NewRenderer builds a dispatcher for version.
func NewRenderer(tools Tools, settings Settings, project ProjectInfo, version string, logger *slog.Logger) *Renderer {
	return &Renderer{
		tools:    tools,
		settings: settings,
		project:  project,
		version:  version,
		logger:   logging.NewComponentLogger(logger, "renderer"),
	}
}

// Implemented reports whether renderer launches a real process.
func Implemented(renderer string) bool {
	return renderer == RendererArnold || renderer == RendererKarma
}

// RenderShot renders info.Frame and returns the output path. Renderers
// without an adapter return the templated path without launching anything.
func (r *Renderer) RenderShot(ctx context.Context, info ShotInfo) (string, error) {
	camera := info.Camera
	if camera == "" {
		camera = r.settings.Camera
	}
	switch r.settings.Renderer {
	case RendererArnold:
		return r.renderArnold(ctx, info.Frame, camera)
	case RendererKarma:
		return r.renderKarma(ctx, info.Frame, camera)
	default:
		path := filepath.Join(r.settings.OutputDir, r.settings.GenerateFilename(info.Shot, camera, info.Frame))
		logging.WithContext(ctx, r.logger).Info("dry run render",
			logging.String("renderer", r.settings.Renderer),
			logging.Int(logging.FieldFrame, info.Frame),
			logging.String("output", path),
		)
		return path, nil
	}
}

func (r *Renderer) renderArnold(ctx context.Context, frame int, camera string) (string, error) {
	if r.tools.Arnold == nil {
		return "", services.Wrap(services.ErrInvalidConfiguration, "render", "arnold", "maya adapter not configured", nil)
	}
	scene, err := r.ResolveScene()
	if err != nil {
		return "", err
	}
	out, err := r.OutputPath(frame)
	if err != nil {
		return "", err
	}
	err = r.tools.Arnold.Render(ctx, maya.RenderRequest{
		Scene:       scene,
		ProjectName: r.project.Name,
		Output:      out,
		Frame:       frame,
		Ext:         r.settings.Extension(),
		Camera:      camera,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (r *Renderer) renderKarma(ctx context.Context, frame int, camera string) (string, error) {
	if r.tools.Karma == nil {
		return "", services.Wrap(services.ErrInvalidConfiguration, "render", "karma", "houdini adapter not configured", nil)
	}
	scene, err := r.ResolveScene()
	if err != nil {
		return "", err
	}
	out, err := r.OutputPath(frame)
	if err != nil {
		return "", err
	}
	err = r.tools.Karma.RenderFrame(ctx, houdini.FrameRequest{
		Scene:  scene,
		Output: out,
		Frame:  frame,
		Width:  r.settings.Width,
		Height: r.settings.Height,
		Camera: camera,
		Light:  r.settings.Light,
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// ResolveScene picks the scene file the configured renderer consumes and
// returns its absolute path. Renderers without an adapter need no scene and
// get an empty path.
func (r *Renderer) ResolveScene() (string, error) {
	return ResolveScene(r.project, r.settings.Renderer)
}

// ResolveScene picks the first scene file matching renderer: Maya scenes for
// Arnold, USD stages for Karma.
func ResolveScene(project ProjectInfo, renderer string) (string, error) {
	var exts []string
	switch renderer {
	case RendererArnold:
		exts = []string{".ma", ".mb"}
	case RendererKarma:
		exts = []string{".usda"}
	default:
		return "", nil
	}
	if project.SceneFiles.Malformed {
		return "", services.Wrap(services.ErrInvalidConfiguration, "render", "resolve scene", "scene_files is not a list", nil)
	}
	if len(project.SceneFiles.Files) == 0 {
		return "", services.Wrap(services.ErrInvalidConfiguration, "render", "resolve scene", "scene_files is empty", nil)
	}

	chosen := ""
	for _, name := range project.SceneFiles.Files {
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range exts {
			if ext == want {
				chosen = name
				break
			}
		}
		if chosen != "" {
			break
		}
	}
	if chosen == "" {
		return "", services.Wrap(services.ErrNotFound, "render", "resolve scene",
			fmt.Sprintf("no %s scene file for %s", strings.Join(exts, "/"), renderer), nil)
	}

	path := chosen
	if !filepath.IsAbs(path) {
		path = filepath.Join(project.Dir, chosen)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve scene path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "render", "resolve scene", "scene file "+abs, nil)
		}
		return "", fmt.Errorf("stat scene: %w", err)
	}
	return abs, nil
}

// OutputPath returns {output_dir}/{rsv}/rf{frame}v{version}.{ext}, creating
// the version directory.
func (r *Renderer) OutputPath(frame int) (string, error) {
	dir := r.settings.OutputDir
	if r.version != "" {
		dir = filepath.Join(dir, r.version)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create render directory: %w", err)
	}
	return filepath.Join(dir, FrameFilename(r.version, frame, r.settings.Extension())), nil
}

// FrameFilename names the output of frame in version: rf12v003.exr. A missing
// or malformed version counts as 1.
func FrameFilename(version string, frame int, ext string) string {
	n, ok := metadata.ParseVersionID(version)
	if !ok {
		n = 1
	}
	return fmt.Sprintf("rf%dv%03d.%s", frame, n, ext)
}
