package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dccpipe/internal/metadata"
	"dccpipe/internal/project"
)

func newShotCommand(ctx *commandContext) *cobra.Command {
	shotCmd := &cobra.Command{
		Use:     "shot",
		Aliases: []string{"shots"},
		Short:   "Manage a project's shots",
	}

	shotCmd.AddCommand(newShotListCommand(ctx))
	shotCmd.AddCommand(newShotAddCommand(ctx))
	shotCmd.AddCommand(newShotUpdateCommand(ctx))
	shotCmd.AddCommand(newShotRemoveCommand(ctx))

	return shotCmd
}

// withLockedProject loads name and holds its write lock while fn runs.
func (c *commandContext) withLockedProject(name string, fn func(*project.Project) error) error {
	proj, err := c.loadProject(name)
	if err != nil {
		return err
	}
	unlock, err := proj.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	return fn(proj)
}

func newShotListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list <project>",
		Aliases: []string{"ls"},
		Short:   "List shots and frame ranges",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			shots := proj.Store.Shots()
			if ctx.jsonOutput() {
				return writeJSON(cmd, shots)
			}
			out := cmd.OutOrStdout()
			if len(shots) == 0 {
				fmt.Fprintln(out, "No shots")
				return nil
			}
			rows := make([][]string, 0, len(shots))
			for _, shot := range shots {
				rows = append(rows, []string{
					shot.Name,
					fmt.Sprint(shot.Range.Start),
					fmt.Sprint(shot.Range.End),
					fmt.Sprint(shot.Range.Len()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Shot", "Start", "End", "Frames"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newShotAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <shot> <range>",
		Short: "Add a shot with a frame range such as 1001-1100",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := metadata.ParseFrameRange(args[2])
			if err != nil {
				return err
			}
			return ctx.withLockedProject(args[0], func(proj *project.Project) error {
				if err := proj.Store.AddShot(args[1], r.Start, r.End); err != nil {
					return err
				}
				return reportShot(cmd, ctx, proj, args[1], "Added")
			})
		},
	}
}

func newShotUpdateCommand(ctx *commandContext) *cobra.Command {
	var rename string
	var frameRange string

	cmd := &cobra.Command{
		Use:   "update <project> <shot>",
		Short: "Rename a shot or change its frame range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rename == "" && frameRange == "" {
				return fmt.Errorf("nothing to update: pass --rename and/or --range")
			}
			return ctx.withLockedProject(args[0], func(proj *project.Project) error {
				current, err := proj.Store.Shot(args[1])
				if err != nil {
					return err
				}
				r := current.Range
				if frameRange != "" {
					if r, err = metadata.ParseFrameRange(frameRange); err != nil {
						return err
					}
				}
				if err := proj.Store.UpdateShot(current.Name, rename, r.Start, r.End); err != nil {
					return err
				}
				name := current.Name
				if rename != "" {
					name = rename
				}
				return reportShot(cmd, ctx, proj, name, "Updated")
			})
		},
	}

	cmd.Flags().StringVar(&rename, "rename", "", "New shot name")
	cmd.Flags().StringVar(&frameRange, "range", "", "New frame range such as 1001-1100")
	return cmd
}

func newShotRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <project> <shot>",
		Aliases: []string{"rm"},
		Short:   "Remove a shot; its render versions are kept",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLockedProject(args[0], func(proj *project.Project) error {
				if err := proj.Store.RemoveShot(args[1]); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"removed": args[1]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed shot %s from %s\n", args[1], proj.Name)
				return nil
			})
		},
	}
}

func reportShot(cmd *cobra.Command, ctx *commandContext, proj *project.Project, name, verb string) error {
	shot, err := proj.Store.Shot(name)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, shot)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s shot %s [%s] in %s\n", verb, shot.Name, shot.Range, proj.Name)
	return nil
}
