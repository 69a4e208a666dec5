package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dccpipe/internal/preflight"
)

type doctorReport struct {
	Checks []preflight.Result    `json:"checks"`
	Daemon preflight.Result      `json:"daemon"`
	Host   *preflight.HostReport `json:"host,omitempty"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipHost bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, DCC tools, the daemon and host resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := doctorReport{
				Checks: preflight.RunAll(cmd.Context(), cfg),
				Daemon: preflight.CheckDaemon(cmd.Context(), preflight.DaemonURL(cfg.API.Bind), cfg.API.Token),
			}
			if !skipHost {
				host := preflight.InspectHost(cmd.Context(), cfg.Paths.RootDir)
				report.Host = &host
			}
			failed := preflight.Failed(report.Checks)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDoctorReport(cmd, report, shouldColorize(cmd.OutOrStdout()))
			}
			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, result := range failed {
					names = append(names, result.Name)
				}
				return errors.New("failed checks: " + strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipHost, "no-host", false, "Skip the host resource report")
	return cmd
}

func printDoctorReport(cmd *cobra.Command, report doctorReport, colorize bool) {
	var lines []string
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, result := range report.Checks {
		lines = append(lines, renderStatusLine(result.Name, checkKind(result), result.Detail, colorize))
	}
	lines = append(lines, renderStatusLine(report.Daemon.Name, checkKind(report.Daemon), report.Daemon.Detail, colorize))

	if host := report.Host; host != nil {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Host", colorize)...)
		lines = append(lines,
			renderStatusLine("Hostname", statusInfo, host.Hostname, colorize),
			renderStatusLine("Platform", statusInfo, strings.TrimSpace(host.Platform), colorize),
			renderStatusLine("CPUs", statusInfo, fmt.Sprintf("%d logical, load %.2f", host.LogicalCPUs, host.Load1), colorize),
			renderStatusLine("Memory", statusInfo, fmt.Sprintf("%s available of %s", byteSize(host.MemoryFree), byteSize(host.MemoryTotal)), colorize),
			renderStatusLine("Project disk", statusInfo, fmt.Sprintf("%s free of %s", byteSize(host.RootDiskFree), byteSize(host.RootDiskTotal)), colorize),
		)
		for _, warning := range host.Warnings {
			lines = append(lines, renderStatusLine("Host", statusWarn, warning, colorize))
		}
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func checkKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}
