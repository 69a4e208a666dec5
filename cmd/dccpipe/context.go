package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"dccpipe/internal/config"
	"dccpipe/internal/jobs"
	"dccpipe/internal/logging"
	"dccpipe/internal/notifications"
	"dccpipe/internal/project"
	"dccpipe/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// log returns the CLI logger, writing at the configured level to the shared
// dccpipe.log.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{cfg.LogPath()},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to open log file: %v\n", err)
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// workspace builds the project workspace with the configured adapters.
func (c *commandContext) workspace() (*project.Workspace, workflow.Clients, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, workflow.Clients{}, err
	}
	clients, err := workflow.NewClients(cfg, c.log(), nil)
	if err != nil {
		return nil, workflow.Clients{}, err
	}
	return workflow.NewWorkspace(cfg, clients, c.log()), clients, nil
}

func (c *commandContext) loadProject(name string) (*project.Project, error) {
	ws, _, err := c.workspace()
	if err != nil {
		return nil, err
	}
	return ws.LoadExisting(name)
}

// withManager runs fn against an in-process workflow manager backed by the
// shared job database. The manager is closed when fn returns.
func (c *commandContext) withManager(fn func(*workflow.Manager) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ws, clients, err := c.workspace()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mgr := workflow.NewManager(cfg, ws, clients.RenderTools(), store, c.log(),
		workflow.WithNotifier(notifications.New(cfg)))
	defer mgr.Close()
	return fn(mgr)
}

func (c *commandContext) withJobs(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// awaitJob blocks until the submitted job finishes or the command is
// interrupted, then returns the final job record. A failed job is returned
// together with an error carrying its message.
func awaitJob(cmdCtx context.Context, mgr *workflow.Manager, job *jobs.Job) (*jobs.Job, error) {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	go func() {
		mgr.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-signalCtx.Done():
		mgr.Close()
		<-done
	}

	final, err := mgr.Jobs().Get(context.WithoutCancel(cmdCtx), job.ID)
	if err != nil {
		return nil, err
	}
	if final.Status == jobs.StatusFailed {
		return final, fmt.Errorf("%s job %s failed: %s", final.Kind, final.ID, final.ErrorMessage)
	}
	if signalCtx.Err() != nil && cmdCtx.Err() == nil {
		return final, context.Canceled
	}
	return final, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
