package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dccpipe/internal/config"
	"dccpipe/internal/jobs"
	"dccpipe/internal/logging"
	"dccpipe/internal/project"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
)

// ErrBusy is returned when a job is submitted while another one runs.
var ErrBusy = services.ErrBusy

// Observer receives job and frame measurements.
type Observer interface {
	render.Recorder
	JobStarted(kind string)
	JobFinished(kind, status string, elapsed time.Duration)
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithObserver attaches a metrics observer.
func WithObserver(obs Observer) ManagerOption {
	return func(m *Manager) {
		m.observer = obs
	}
}

// Notifier is told about every job once its final state is recorded.
type Notifier interface {
	JobFinished(ctx context.Context, job *jobs.Job) error
}

// WithNotifier attaches a job notifier.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) {
		m.notifier = n
	}
}

// Manager runs one background job at a time.
type Manager struct {
	cfg       *config.Config
	workspace *project.Workspace
	tools     render.Tools
	store     *jobs.Store
	logger    *slog.Logger
	observer  Observer
	notifier  Notifier

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	active  *jobs.Job
	lastJob *jobs.Job
	lastErr error
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, workspace *project.Workspace, tools render.Tools, store *jobs.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	group := &errgroup.Group{}
	group.SetLimit(1)
	m := &Manager{
		cfg:       cfg,
		workspace: workspace,
		tools:     tools,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		group:     group,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Workspace returns the project workspace the manager operates on.
func (m *Manager) Workspace() *project.Workspace {
	return m.workspace
}

// Jobs returns the job store.
func (m *Manager) Jobs() *jobs.Store {
	return m.store
}

// Wait blocks until the running job, if any, has finished.
func (m *Manager) Wait() {
	_ = m.group.Wait()
}

// Close cancels the running job and waits for it to stop.
func (m *Manager) Close() {
	m.cancel()
	m.Wait()
}

// jobTask is the body of a background job. update applies a change to the
// job record and persists it.
type jobTask func(ctx context.Context, update func(func(*jobs.Job))) error

// submit reserves the worker slot, records a job and runs task in the
// background. The slot is taken before the record is written so a busy
// manager never leaves a job row behind.
func (m *Manager) submit(ctx context.Context, kind jobs.Kind, projectName, shot string, task jobTask) (*jobs.Job, error) {
	start := make(chan *jobs.Job, 1)
	launched := m.group.TryGo(func() error {
		job := <-start
		if job == nil {
			return nil
		}
		m.execute(job, task)
		return nil
	})
	if !launched {
		return nil, services.Wrap(ErrBusy, "workflow", "submit", "another job is running", nil)
	}

	job, err := m.store.Create(ctx, kind, projectName, shot)
	if err != nil {
		start <- nil
		return nil, err
	}
	snapshot := *job
	m.mu.Lock()
	m.active = job
	m.mu.Unlock()
	start <- job
	return &snapshot, nil
}

func (m *Manager) execute(job *jobs.Job, task jobTask) {
	ctx := services.WithJobID(services.WithProject(m.ctx, job.Project), job.ID)
	logger := logging.WithContext(ctx, m.logger)
	kind := string(job.Kind)
	started := time.Now()
	if m.observer != nil {
		m.observer.JobStarted(kind)
	}

	update := func(fn func(*jobs.Job)) {
		m.update(ctx, logger, job, fn)
	}
	update(func(j *jobs.Job) { j.Status = jobs.StatusRunning })
	logger.Info("job started", logging.String("kind", kind))

	err := task(ctx, update)
	status := jobs.StatusCompleted
	if err != nil {
		status = jobs.StatusFailed
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String("kind", kind),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
	} else {
		logger.Info("job completed",
			logging.String("kind", kind),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
	// The context is cancelled on shutdown; the final state still needs to
	// be recorded.
	m.update(context.WithoutCancel(ctx), logger, job, func(j *jobs.Job) {
		j.Status = status
		if err != nil {
			j.ErrorMessage = err.Error()
		}
	})
	if m.observer != nil {
		m.observer.JobFinished(kind, string(status), time.Since(started))
	}

	m.mu.Lock()
	last := *job
	m.active = nil
	m.lastJob = &last
	m.lastErr = err
	m.mu.Unlock()

	if m.notifier != nil {
		if notifyErr := m.notifier.JobFinished(context.WithoutCancel(ctx), &last); notifyErr != nil {
			logging.WarnWithContext(logger, "job notification failed", "notification_failed",
				logging.Error(notifyErr),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "job outcome is unaffected"),
			)
		}
	}
}

func (m *Manager) update(ctx context.Context, logger *slog.Logger, job *jobs.Job, fn func(*jobs.Job)) {
	m.mu.Lock()
	fn(job)
	snapshot := *job
	m.mu.Unlock()
	if err := m.store.Update(ctx, &snapshot); err != nil {
		logging.WarnWithContext(logger, "failed to persist job state", "job_persist_failed",
			logging.String("status", string(snapshot.Status)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job history may show stale progress"),
		)
	}
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Busy      bool      `json:"busy"`
	Active    *jobs.Job `json:"active,omitempty"`
	LastJob   *jobs.Job `json:"last_job,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := StatusSummary{Busy: m.active != nil}
	if m.active != nil {
		active := *m.active
		summary.Active = &active
	}
	if m.lastJob != nil {
		last := *m.lastJob
		summary.LastJob = &last
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	return summary
}
