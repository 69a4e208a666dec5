package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dccpipe/internal/metadata"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
)

func TestRenderShotKarmaInvokesHoudiniAdapter(t *testing.T) {
	f := newFixture(t, "alpha.usda", "alpha.mb")
	settings := f.settings(t, "Karma")
	project := render.ProjectInfo{Name: "Alpha", Dir: f.dir, SceneFiles: metadata.NewSceneFiles("alpha.mb", "alpha.usda")}
	renderer := render.NewRenderer(f.tools, settings, project, "rsv002", nil)

	out, err := renderer.RenderShot(context.Background(), render.ShotInfo{Shot: "sh010", Frame: 12})
	if err != nil {
		t.Fatalf("RenderShot returned error: %v", err)
	}
	want := filepath.Join(f.dir, "Renders", "rsv002", "rf12v002.exr")
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
	calls := f.runner.Calls()
	if len(calls) != 1 || calls[0].Binary != "hython" || calls[0].Args[1] != "render-frame" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if scene, _ := calls[0].Flag("--scene"); scene != filepath.Join(f.dir, "alpha.usda") {
		t.Fatalf("scene = %q", scene)
	}
	if _, ok := calls[0].Flag("--camera"); ok {
		t.Fatal("camera flag should be omitted when unset")
	}
}

func TestRenderShotArnoldInvokesMayaAdapter(t *testing.T) {
	f := newFixture(t, "alpha.usda", "alpha.ma")
	settings := f.settings(t, "arnold")
	project := render.ProjectInfo{Name: "Alpha", Dir: f.dir, SceneFiles: metadata.NewSceneFiles("alpha.usda", "alpha.ma")}
	renderer := render.NewRenderer(f.tools, settings, project, "rsv001", nil)

	if _, err := renderer.RenderShot(context.Background(), render.ShotInfo{Shot: "sh010", Camera: "shotCam", Frame: 3}); err != nil {
		t.Fatalf("RenderShot returned error: %v", err)
	}
	call := f.runner.Calls()[0]
	if call.Binary != "mayapy" || call.Args[1] != "render" {
		t.Fatalf("unexpected call %+v", call)
	}
	for flag, want := range map[string]string{
		"--file": filepath.Join(f.dir, "alpha.ma"), "--scene": "Alpha", "--ext": "exr", "--cam": "shotCam",
		"--outputr": filepath.Join(f.dir, "Renders", "rsv001", "rf3v001.exr"),
	} {
		if got, _ := call.Flag(flag); got != want {
			t.Fatalf("%s = %q, want %q", flag, got, want)
		}
	}
}

func TestRenderShotDryRunForRendererWithoutAdapter(t *testing.T) {
	f := newFixture(t)
	settings := f.settings(t, "redshift")
	renderer := render.NewRenderer(f.tools, settings, render.ProjectInfo{Name: "Alpha", Dir: f.dir}, "rsv001", nil)

	out, err := renderer.RenderShot(context.Background(), render.ShotInfo{Shot: "sh010", Camera: "cam", Frame: 4})
	if err != nil {
		t.Fatalf("RenderShot returned error: %v", err)
	}
	if out != filepath.Join(f.dir, "Renders", "sh010_cam_4") {
		t.Fatalf("dry run output = %q", out)
	}
	if len(f.runner.Calls()) != 0 {
		t.Fatal("dry run must not launch a process")
	}
}

func TestResolveSceneErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name     string
		files    metadata.SceneFiles
		renderer string
		want     error
	}{
		{"empty list", metadata.NewSceneFiles(), "Karma", services.ErrInvalidConfiguration},
		{"malformed list", metadata.SceneFiles{Malformed: true}, "Karma", services.ErrInvalidConfiguration},
		{"no maya scene", metadata.NewSceneFiles("a.usda"), "Arnold", services.ErrNotFound},
		{"no usd scene", metadata.NewSceneFiles("a.mb"), "Karma", services.ErrNotFound},
		{"missing file", metadata.NewSceneFiles("ghost.usda"), "Karma", services.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := render.ResolveScene(render.ProjectInfo{Dir: dir, SceneFiles: tc.files}, tc.renderer)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOutputPathUsesVersionDirectoryAndLowercaseFormat(t *testing.T) {
	f := newFixture(t)
	settings, err := render.NewSettings(render.SettingsOptions{
		Renderer:     "Karma",
		FPS:          24,
		OutputDir:    filepath.Join(f.dir, "Renders"),
		OutputFormat: "EXR",
	})
	if err != nil {
		t.Fatalf("NewSettings returned error: %v", err)
	}
	renderer := render.NewRenderer(f.tools, settings, render.ProjectInfo{Name: "Alpha", Dir: f.dir}, "rsv007", nil)

	out, err := renderer.OutputPath(42)
	if err != nil {
		t.Fatalf("OutputPath returned error: %v", err)
	}
	if want := filepath.Join(f.dir, "Renders", "rsv007", "rf42v007.exr"); out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
	if info, err := os.Stat(filepath.Dir(out)); err != nil || !info.IsDir() {
		t.Fatalf("version directory not created: %v", err)
	}
}
