package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dccpipe/internal/jobs"
	"dccpipe/internal/render"
	"dccpipe/internal/workflow"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	renderCmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"renders"},
		Short:   "Render shots and inspect render versions",
	}

	renderCmd.AddCommand(newRenderStartCommand(ctx))
	renderCmd.AddCommand(newRenderResumeCommand(ctx))
	renderCmd.AddCommand(newRenderVersionsCommand(ctx))
	renderCmd.AddCommand(newRenderInfoCommand(ctx))
	renderCmd.AddCommand(newRenderGalleryCommand(ctx))

	return renderCmd
}

func newRenderStartCommand(ctx *commandContext) *cobra.Command {
	var opts render.SettingsOptions

	cmd := &cobra.Command{
		Use:   "start <project> <shot>",
		Short: "Render every frame of a shot into a new render version",
		Long: `Render every frame of a shot into a new render version (rsvNNN).

Unset flags fall back to the [render] configuration section. Frames are
rendered one at a time; a failed frame stops the render and the version can be
finished later with "dccpipe render resume".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager) error {
				job, err := mgr.SubmitRender(cmd.Context(), workflow.RenderRequest{
					Project:  args[0],
					Shot:     args[1],
					Settings: opts,
				})
				if err != nil {
					return err
				}
				return reportRenderJob(cmd, ctx, mgr, job)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Renderer, "renderer", "r", "", "Renderer: Arnold, Karma or Redshift")
	flags.IntVar(&opts.FPS, "fps", 0, "Frames per second")
	flags.StringVarP(&opts.OutputDir, "output-dir", "o", "", "Output directory (default <project>/Renders)")
	flags.StringVar(&opts.OutputFormat, "format", "", "Output image format")
	flags.IntVar(&opts.Width, "width", 0, "Resolution width")
	flags.IntVar(&opts.Height, "height", 0, "Resolution height")
	flags.BoolVar(&opts.MotionBlur, "motion-blur", false, "Enable motion blur")
	flags.BoolVar(&opts.Denoise, "denoise", false, "Enable denoising")
	flags.StringVar(&opts.FilenameTemplate, "filename-template", "", "Output filename template")
	flags.StringVar(&opts.Camera, "camera", "", "Camera to render through")
	flags.StringVar(&opts.Light, "light", "", "Light rig: \"Dome Light\" or \"Physical Sky\"")
	return cmd
}

func newRenderResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <project> <version>",
		Short: "Render the missing frames of an existing version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(mgr *workflow.Manager) error {
				job, err := mgr.SubmitResume(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return reportRenderJob(cmd, ctx, mgr, job)
			})
		},
	}
}

func reportRenderJob(cmd *cobra.Command, ctx *commandContext, mgr *workflow.Manager, job *jobs.Job) error {
	final, err := awaitJob(cmd.Context(), mgr, job)
	if final != nil && ctx.jsonOutput() {
		if jsonErr := writeJSON(cmd, final); jsonErr != nil {
			return jsonErr
		}
		return err
	}
	if err != nil {
		if final != nil && final.RenderVersion != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s stopped after %d/%d frames; finish it with: dccpipe render resume %s %s\n",
				final.RenderVersion, final.FramesDone, final.FramesTotal, final.Project, final.RenderVersion)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s %s: %d/%d frames\n",
		final.Project, final.RenderVersion, final.FramesDone, final.FramesTotal)
	return nil
}

func newRenderVersionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "versions <project>",
		Aliases: []string{"ls"},
		Short:   "List render versions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			manager := proj.Manager()
			versions := manager.RenderVersions()
			if ctx.jsonOutput() {
				latest, _ := manager.Latest()
				return writeJSON(cmd, map[string]any{"versions": versions, "latest": latest})
			}
			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(out, "No render versions")
				return nil
			}
			rows := make([][]string, 0, len(versions))
			for _, id := range versions {
				record, err := manager.RenderInfo(id)
				if err != nil {
					return err
				}
				total := "-"
				if shot, err := proj.Store.Shot(record.Shot); err == nil {
					total = strconv.Itoa(shot.Range.Len())
				}
				rows = append(rows, []string{
					id,
					record.Shot,
					record.Settings.Renderer,
					fmt.Sprintf("%d/%s", len(record.Frames), total),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Version", "Shot", "Renderer", "Frames"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newRenderInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <project> <version>",
		Short: "Show the settings and completed frames of a version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			record, err := proj.Manager().RenderInfo(args[1])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, record)
			}
			s := record.Settings
			rows := [][]string{
				{"Version", args[1]},
				{"Shot", record.Shot},
				{"Renderer", s.Renderer},
				{"FPS", strconv.Itoa(s.FPS)},
				{"Resolution", fmt.Sprintf("%dx%d", s.ResolutionWidth, s.ResolutionHeight)},
				{"Format", s.OutputFormat},
				{"Output", s.OutputDir},
				{"Template", s.FilenameTemplate},
				{"Motion blur", yesNo(s.MotionBlur)},
				{"Denoise", yesNo(s.Denoise)},
				{"Camera", valueOrDash(s.Camera)},
				{"Light", valueOrDash(s.Light)},
				{"Frames", formatFrames(record.Frames)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func newRenderGalleryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "gallery <project> <frame>",
		Short: "List rendered outputs of a frame across versions, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid frame %q", args[1])
			}
			proj, err := ctx.loadProject(args[0])
			if err != nil {
				return err
			}
			entries, err := render.NewGallery(proj.Manager()).FrameHistory(frame)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if entries == nil {
					entries = []render.GalleryEntry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No rendered output for frame %d\n", frame)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Version, entry.Path})
			}
			fmt.Fprintln(out, renderTable([]string{"Version", "Path"}, rows, nil))
			return nil
		},
	}
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
