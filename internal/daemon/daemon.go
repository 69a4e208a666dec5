package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dccpipe/internal/api"
	"dccpipe/internal/config"
	"dccpipe/internal/jobs"
	"dccpipe/internal/logging"
	"dccpipe/internal/metrics"
	"dccpipe/internal/services"
	"dccpipe/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// Daemon owns the single-instance lock, the job store and the HTTP server.
type Daemon struct {
	cfg      *config.Config
	base     *slog.Logger
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	metrics  *metrics.Metrics

	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	running  atomic.Bool
}

// New constructs a daemon with initialized dependencies. met may be nil.
func New(cfg *config.Config, store *jobs.Store, wf *workflow.Manager, met *metrics.Metrics, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, job store, and workflow manager")
	}
	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:      cfg,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		metrics:  met,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers interrupted jobs and starts
// serving the API on the configured bind address.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrBusy, "daemon", "start", "another dccpiped instance holds "+d.lockPath, nil)
	}

	if n, err := d.store.ResetRunning(ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to reset interrupted jobs", "job_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "jobs from a previous run may still show as running"),
		)
	} else if n > 0 {
		d.logger.Info("marked interrupted jobs as failed", logging.Int64("jobs", n))
	}

	opts := []api.Option{
		api.WithToken(strings.TrimSpace(d.cfg.API.Token)),
		api.WithStatus(d.Status),
	}
	if d.metrics != nil {
		opts = append(opts, api.WithMetrics(d.metrics))
	}
	handler := api.NewServer(d.workflow, d.base, opts...).Handler()

	listener, err := net.Listen("tcp", d.cfg.API.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	d.listener = listener
	d.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("api server error", logging.Error(err))
		}
	}(d.server)

	d.running.Store(true)
	d.logger.Info("dccpiped started",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
		logging.Bool("auth", d.cfg.API.Token != ""),
	)
	return nil
}

// Addr returns the address the API listens on, or "" when stopped.
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Stop drains HTTP connections, waits for the running job to stop and
// releases the daemon lock. A stopped daemon cannot be restarted.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api shutdown incomplete", logging.Error(err))
	}
	d.server = nil
	d.listener = nil

	d.workflow.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("dccpiped stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() api.DaemonStatus {
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		RootDir:      d.cfg.Paths.RootDir,
		JobsDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(),
	}
}
