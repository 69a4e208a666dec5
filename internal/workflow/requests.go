package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dccpipe/internal/jobs"
	"dccpipe/internal/project"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
)

// CreateRequest asks for a new project built from Source.
type CreateRequest struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	FileType string `json:"file_type,omitempty"`
}

// RenderRequest asks for a new render version of one shot. Zero settings
// fields fall back to the [render] configuration and the project's Renders
// directory.
type RenderRequest struct {
	Project  string                 `json:"project"`
	Shot     string                 `json:"shot"`
	Settings render.SettingsOptions `json:"settings"`
}

// SubmitCreateProject validates req and starts project creation.
func (m *Manager) SubmitCreateProject(ctx context.Context, req CreateRequest) (*jobs.Job, error) {
	name, err := project.ValidateName(req.Name)
	if err != nil {
		return nil, err
	}
	if m.workspace.Exists(name) {
		return nil, services.Wrap(services.ErrAlreadyExists, "workflow", "create project", fmt.Sprintf("project %q", name), nil)
	}
	fileType, err := project.ParseFileType(req.FileType)
	if err != nil {
		return nil, err
	}
	source, err := filepath.Abs(req.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "create project", "source scene "+source, nil)
	}

	return m.submit(ctx, jobs.KindCreateProject, name, "", func(ctx context.Context, update func(func(*jobs.Job))) error {
		_, err := m.workspace.CreateNew(ctx, name, source, fileType)
		return err
	})
}

// ResolveSettings fills unset fields of opts from configuration and
// validates the result.
func (m *Manager) ResolveSettings(proj *project.Project, opts render.SettingsOptions) (render.Settings, error) {
	if opts.Renderer == "" {
		opts.Renderer = m.cfg.Render.Renderer
	}
	if opts.FPS == 0 {
		opts.FPS = m.cfg.Render.FPS
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = m.cfg.Render.OutputFormat
	}
	if opts.Width == 0 {
		opts.Width = m.cfg.Render.Width
	}
	if opts.Height == 0 {
		opts.Height = m.cfg.Render.Height
	}
	if opts.OutputDir == "" {
		opts.OutputDir = proj.RendersDir()
	}
	return render.NewSettings(opts)
}

// SubmitRender validates req and starts rendering the shot. Unknown projects
// and shots, invalid settings and missing scene files are reported here,
// before any job or render version exists.
func (m *Manager) SubmitRender(ctx context.Context, req RenderRequest) (*jobs.Job, error) {
	proj, err := m.workspace.LoadExisting(req.Project)
	if err != nil {
		return nil, err
	}
	shot, err := proj.Store.Shot(req.Shot)
	if err != nil {
		return nil, err
	}
	settings, err := m.ResolveSettings(proj, req.Settings)
	if err != nil {
		return nil, err
	}
	if _, err := render.ResolveScene(proj.Info(), settings.Renderer); err != nil {
		return nil, err
	}

	return m.submit(ctx, jobs.KindRender, proj.Name, shot.Name, func(ctx context.Context, update func(func(*jobs.Job))) error {
		unlock, err := proj.Lock()
		if err != nil {
			return err
		}
		defer func() { _ = unlock() }()

		job := render.NewJob(proj.Store, m.tools, m.logger, render.WithRecorder(m.observer))
		_, err = job.RunShot(ctx, shot.Name, settings, progressUpdater(update))
		return err
	})
}

// SubmitResume starts rendering the missing frames of an existing version.
func (m *Manager) SubmitResume(ctx context.Context, projectName, version string) (*jobs.Job, error) {
	proj, err := m.workspace.LoadExisting(projectName)
	if err != nil {
		return nil, err
	}
	record, err := proj.Manager().RenderInfo(version)
	if err != nil {
		return nil, err
	}

	return m.submit(ctx, jobs.KindResume, proj.Name, record.Shot, func(ctx context.Context, update func(func(*jobs.Job))) error {
		unlock, err := proj.Lock()
		if err != nil {
			return err
		}
		defer func() { _ = unlock() }()

		job := render.NewJob(proj.Store, m.tools, m.logger, render.WithRecorder(m.observer))
		_, err = job.Resume(ctx, version, progressUpdater(update))
		return err
	})
}

func progressUpdater(update func(func(*jobs.Job))) render.ProgressFunc {
	return func(p render.Progress) {
		update(func(j *jobs.Job) {
			j.RenderVersion = p.Version
			j.FramesTotal = p.Total
			j.FramesDone = p.Done
		})
	}
}
