package render

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"dccpipe/internal/logging"
	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
)

// Progress reports the state of a shot render after each frame. A report
// with Done == 0 is sent once the version has been allocated.
type Progress struct {
	Version string
	Shot    string
	Frame   int
	Done    int
	Total   int
	Output  string
}

// ProgressFunc receives progress reports. It may be nil.
type ProgressFunc func(Progress)

// Recorder observes rendered frames (metrics).
type Recorder interface {
	ObserveFrame(renderer string, elapsed time.Duration, err error)
}

// Result summarizes a finished or aborted shot render.
type Result struct {
	Version string
	Shot    string
	Frames  []int
	Outputs []string
}

// JobOption configures a Job.
type JobOption func(*Job)

// WithRecorder attaches a frame observer.
func WithRecorder(rec Recorder) JobOption {
	return func(j *Job) {
		j.recorder = rec
	}
}

// Job renders whole shots of one project, one frame at a time.
type Job struct {
	store    *metadata.Store
	manager  *Manager
	tools    Tools
	logger   *slog.Logger
	recorder Recorder
}

// NewJob builds a shot renderer over the project manifest in store.
func NewJob(store *metadata.Store, tools Tools, logger *slog.Logger, opts ...JobOption) *Job {
	job := &Job{
		store:   store,
		manager: NewManager(store),
		tools:   tools,
		logger:  logging.NewComponentLogger(logger, "render"),
	}
	for _, opt := range opts {
		opt(job)
	}
	return job
}

// Manager exposes the version manager backing the job.
func (j *Job) Manager() *Manager {
	return j.manager
}

// RunShot allocates a new render version and renders every frame of shot in
// ascending order. Validation happens before anything is allocated; the first
// failing frame aborts the run and frames already recorded are kept.
func (j *Job) RunShot(ctx context.Context, shotName string, settings Settings, progress ProgressFunc) (Result, error) {
	shot, err := j.store.Shot(shotName)
	if err != nil {
		return Result{}, err
	}
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}
	project := j.projectInfo()
	if _, err := ResolveScene(project, settings.Renderer); err != nil {
		return Result{}, err
	}

	version, err := j.manager.NewRenderVersion(settings, shot.Name)
	if err != nil {
		return Result{}, err
	}
	return j.renderFrames(ctx, project, version, shot, settings, shot.Range.Frames(), 0, progress)
}

// Resume renders the frames of version's shot that are not yet recorded,
// using the settings stored with the version.
func (j *Job) Resume(ctx context.Context, version string, progress ProgressFunc) (Result, error) {
	record, err := j.manager.RenderInfo(version)
	if err != nil {
		return Result{}, err
	}
	if record.Shot == "" {
		return Result{}, services.Wrap(services.ErrInvalidConfiguration, "render", "resume",
			fmt.Sprintf("render version %q has no shot", version), nil)
	}
	shot, err := j.store.Shot(record.Shot)
	if err != nil {
		return Result{}, err
	}
	settings := SettingsFromSnapshot(record.Settings)
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}
	project := j.projectInfo()
	if _, err := ResolveScene(project, settings.Renderer); err != nil {
		return Result{}, err
	}

	var missing []int
	for _, frame := range shot.Range.Frames() {
		if !slices.Contains(record.Frames, frame) {
			missing = append(missing, frame)
		}
	}
	return j.renderFrames(ctx, project, version, shot, settings, missing, shot.Range.Len()-len(missing), progress)
}

func (j *Job) renderFrames(ctx context.Context, project ProjectInfo, version string, shot metadata.Shot, settings Settings, frames []int, done int, progress ProgressFunc) (Result, error) {
	ctx = services.WithRenderVersion(services.WithProject(ctx, project.Name), version)
	logger := logging.WithContext(ctx, j.logger).With(logging.String(logging.FieldShot, shot.Name))
	renderer := NewRenderer(j.tools, settings, project, version, j.logger)
	sampler := logging.NewProgressSampler(10)
	total := shot.Range.Len()
	result := Result{Version: version, Shot: shot.Name}

	report := func(frame int, output string) {
		if progress != nil {
			progress(Progress{Version: version, Shot: shot.Name, Frame: frame, Done: done, Total: total, Output: output})
		}
	}

	logger.Info("render started",
		logging.String("renderer", settings.Renderer),
		logging.Int("frames_pending", len(frames)),
		logging.Int("frames_total", total),
	)
	report(0, "")

	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		start := time.Now()
		output, err := renderer.RenderShot(ctx, ShotInfo{Shot: shot.Name, Camera: settings.Camera, Frame: frame})
		if j.recorder != nil {
			j.recorder.ObserveFrame(settings.Renderer, time.Since(start), err)
		}
		if err != nil {
			logging.ErrorWithContext(logger, "frame render failed", "frame_failed",
				logging.Int(logging.FieldFrame, frame),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the adapter output above and the scene file"),
			)
			return result, fmt.Errorf("render frame %d: %w", frame, err)
		}
		if err := j.manager.UpdateFrame(version, frame); err != nil {
			return result, err
		}
		done++
		result.Frames = append(result.Frames, frame)
		result.Outputs = append(result.Outputs, output)
		if sampler.ShouldLog(shot.Name, done, total) {
			logger.Info("render progress",
				logging.Int(logging.FieldFrame, frame),
				logging.Int("frames_done", done),
				logging.Int("frames_total", total),
			)
		}
		report(frame, output)
	}

	logger.Info("render completed", logging.Int("frames_rendered", len(result.Frames)))
	return result, nil
}

func (j *Job) projectInfo() ProjectInfo {
	var info ProjectInfo
	j.store.View(func(doc *metadata.Document) {
		info = ProjectInfo{
			Name:       doc.ProjectName,
			Dir:        doc.ProjectDir,
			SceneFiles: doc.SceneFiles,
		}
		info.SceneFiles.Files = slices.Clone(doc.SceneFiles.Files)
	})
	return info
}
