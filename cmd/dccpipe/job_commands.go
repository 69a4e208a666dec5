package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dccpipe/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect job history",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var projectFilter string
	var statusFilter []string
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := jobs.ListOptions{Project: strings.TrimSpace(projectFilter), Limit: limit}
			for _, status := range statusFilter {
				opts.Status = append(opts.Status, jobs.Status(strings.ToLower(strings.TrimSpace(status))))
			}
			return ctx.withJobs(func(store *jobs.Store) error {
				list, err := store.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if list == nil {
						list = []*jobs.Job{}
					}
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						shortID(job.ID),
						string(job.Kind),
						job.Project,
						valueOrDash(job.Shot),
						valueOrDash(job.RenderVersion),
						string(job.Status),
						fmt.Sprintf("%d/%d", job.FramesDone, job.FramesTotal),
						job.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Project", "Shot", "Version", "Status", "Frames", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&projectFilter, "project", "p", "", "Only jobs for this project")
	cmd.Flags().StringSliceVarP(&statusFilter, "status", "s", nil, "Only jobs with these statuses")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of jobs")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(store *jobs.Store) error {
				job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, job)
				}
				rows := [][]string{
					{"ID", job.ID},
					{"Kind", string(job.Kind)},
					{"Project", job.Project},
					{"Shot", valueOrDash(job.Shot)},
					{"Version", valueOrDash(job.RenderVersion)},
					{"Status", string(job.Status)},
					{"Frames", fmt.Sprintf("%d/%d", job.FramesDone, job.FramesTotal)},
					{"Created", job.CreatedAt.Local().Format(time.DateTime)},
					{"Updated", job.UpdatedAt.Local().Format(time.DateTime)},
				}
				if job.ErrorMessage != "" {
					rows = append(rows, []string{"Error", job.ErrorMessage})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete completed jobs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(store *jobs.Store) error {
				removed, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int64{"removed": removed})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed job(s)\n", removed)
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
