package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dccpipe/internal/workflow"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Create and inspect projects",
	}

	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectShowCommand(ctx))
	projectCmd.AddCommand(newProjectTreeCommand(ctx))

	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var fileType string

	cmd := &cobra.Command{
		Use:   "create <name> <scene>",
		Short: "Create a project from a scene file",
		Long: `Create a project directory under the configured root and import the scene.

Maya (.ma/.mb) and Houdini (.hip/.hipnc/.hiplc) scenes are converted to USD
through their adapters; USD and other files are copied verbatim. Use --type to
override detection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager) error {
				job, err := mgr.SubmitCreateProject(cmd.Context(), workflow.CreateRequest{
					Name:     args[0],
					Source:   args[1],
					FileType: fileType,
				})
				if err != nil {
					return err
				}
				final, err := awaitJob(cmd.Context(), mgr, job)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, final)
				}
				proj, err := mgr.Workspace().LoadExisting(final.Project)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created project %s at %s\n", proj.Name, proj.Dir)
				fmt.Fprintf(out, "Scene files: %s\n", strings.Join(proj.Store.Snapshot().SceneFiles.Files, ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&fileType, "type", "t", "", "Scene type: usd, maya, houdini or other")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects under the project root",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := ctx.workspace()
			if err != nil {
				return err
			}
			names, err := ws.List()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, names)
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No projects")
				return nil
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				proj, err := ws.LoadExisting(name)
				if err != nil {
					rows = append(rows, []string{name, "-", "-", "-"})
					continue
				}
				latest, _ := proj.Manager().Latest()
				if latest == "" {
					latest = "-"
				}
				rows = append(rows, []string{
					name,
					fmt.Sprint(len(proj.Store.Shots())),
					fmt.Sprint(len(proj.Manager().RenderVersions())),
					latest,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Project", "Shots", "Versions", "Latest"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a project's manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			doc := proj.Store.Snapshot()
			if ctx.jsonOutput() {
				return writeJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			scenes := strings.Join(doc.SceneFiles.Files, ", ")
			if doc.SceneFiles.Malformed {
				scenes = "(malformed)"
			}
			rows := [][]string{
				{"Name", doc.ProjectName},
				{"Tag", doc.ProjectTag},
				{"Directory", doc.ProjectDir},
				{"Scene files", scenes},
				{"Created by", doc.CreatedBy},
				{"Created at", doc.CreatedAt},
				{"Shots", fmt.Sprint(len(doc.Shots))},
				{"Render versions", fmt.Sprint(len(doc.Renders))},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			if malformed := proj.Store.MalformedVersionKeys(); len(malformed) > 0 {
				fmt.Fprintf(out, "Ignored malformed render versions: %s\n", strings.Join(malformed, ", "))
			}
			for _, issue := range proj.Store.ShotIssues() {
				fmt.Fprintf(out, "Shot list problem: %s\n", issue)
			}
			return nil
		},
	}
}

func newProjectTreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <name>",
		Short: "Show shots and render versions as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			tree := proj.Tree()
			if ctx.jsonOutput() {
				return writeJSON(cmd, tree)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTree(tree))
			return nil
		},
	}
}
