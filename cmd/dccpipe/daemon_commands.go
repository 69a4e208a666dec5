package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dccpipe/internal/daemonctl"
	"dccpipe/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run or query the HTTP daemon",
	}

	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))

	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run dccpiped in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log output")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Write logs only to the run log file")
	return cmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether dccpiped is running and what it is doing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.New(cfg).Status(cmd.Context())
			colorize := shouldColorize(cmd.OutOrStdout())
			out := cmd.OutOrStdout()
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]bool{"running": false})
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "Not running", colorize))
				return nil
			}
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}

			lines := []string{
				renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
				renderStatusLine("Project root", statusInfo, status.RootDir, colorize),
				renderStatusLine("Job database", statusInfo, status.JobsDBPath, colorize),
			}
			wf := status.Workflow
			switch {
			case wf.Active != nil:
				job := wf.Active
				msg := fmt.Sprintf("%s %s", job.Kind, job.Project)
				if job.RenderVersion != "" {
					msg += fmt.Sprintf(" %s %d/%d", job.RenderVersion, job.FramesDone, job.FramesTotal)
				}
				lines = append(lines, renderStatusLine("Workflow", statusWarn, "Busy: "+msg, colorize))
			default:
				lines = append(lines, renderStatusLine("Workflow", statusOK, "Idle", colorize))
			}
			if wf.LastError != "" {
				lines = append(lines, renderStatusLine("Last error", statusError, wf.LastError, colorize))
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
