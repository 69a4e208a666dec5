package project_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"dccpipe/internal/metadata"
	"dccpipe/internal/project"
	"dccpipe/internal/services"
	"dccpipe/internal/services/command"
	"dccpipe/internal/services/maya"
	"dccpipe/internal/testsupport"
)

const mayaMarker = "[MAYA] Exported USD"

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
}

func newMayaConverter(t *testing.T, runner *testsupport.StubRunner) *maya.Client {
	t.Helper()
	client, err := maya.New("mayapy", []string{"maya_adapter.py"}, mayaMarker, maya.WithRunner(runner))
	if err != nil {
		t.Fatalf("maya.New: %v", err)
	}
	return client
}

func TestCreateNewCopiesUSDScene(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	source := testsupport.WriteScene(t, t.TempDir(), "shot.usda")
	ws := project.NewWorkspace(root, project.WithClock(fixedClock), project.WithCreatedBy("jdoe"))

	proj, err := ws.CreateNew(context.Background(), "Alpha", source, "")
	if err != nil {
		t.Fatalf("CreateNew returned error: %v", err)
	}
	dir := filepath.Join(root, "Alpha")
	if proj.Dir != dir {
		t.Fatalf("project dir = %q, want %q", proj.Dir, dir)
	}
	for _, path := range []string{
		filepath.Join(dir, "shot.usda"),
		filepath.Join(dir, "Renders"),
		filepath.Join(dir, "Config", "metadata.yaml"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", path, err)
		}
	}

	doc, err := metadata.Load(filepath.Join(dir, "Config", "metadata.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.ProjectName != "Alpha" || doc.ProjectTag != "@Alpha" || doc.ProjectDir != dir {
		t.Fatalf("unexpected identity fields: %+v", doc)
	}
	if !reflect.DeepEqual(doc.SceneFiles.Files, []string{"shot.usda"}) {
		t.Fatalf("scene files = %v", doc.SceneFiles.Files)
	}
	if doc.CreatedBy != "jdoe" || doc.CreatedAt != "2026-03-04T05:06:07Z" || doc.RootDir != root {
		t.Fatalf("unexpected provenance: %+v", doc)
	}
	if len(doc.Shots) != 0 || len(doc.Renders) != 0 {
		t.Fatal("new project should have no shots or renders")
	}
}

func TestCreateNewConvertsMayaSceneOnce(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	sourceDir := t.TempDir()
	source := testsupport.WriteScene(t, sourceDir, "hero.mb")
	runner := &testsupport.StubRunner{Stdout: mayaMarker + " to somewhere\n"}
	ws := project.NewWorkspace(root,
		project.WithConverter(project.FileTypeMaya, newMayaConverter(t, runner)),
		project.WithConvertRange(1, 48),
	)

	if _, err := ws.CreateNew(context.Background(), "Hero", source, ""); err != nil {
		t.Fatalf("CreateNew returned error: %v", err)
	}
	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one conversion, got %d", len(calls))
	}
	dir := filepath.Join(root, "Hero")
	for flag, want := range map[string]string{
		"--directory": dir,
		"--scene":     "Hero",
		"--file":      source,
		"--outputf":   filepath.Join(dir, "hero.usda"),
		"--startf":    "1",
		"--endf":      "48",
	} {
		got, _ := calls[0].Flag(flag)
		if got != want {
			t.Fatalf("%s = %q, want %q", flag, got, want)
		}
		if flag != "--scene" && flag != "--startf" && flag != "--endf" && !filepath.IsAbs(got) {
			t.Fatalf("%s should be absolute, got %q", flag, got)
		}
	}
	doc, err := metadata.Load(filepath.Join(dir, "Config", "metadata.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(doc.SceneFiles.Files, []string{"hero.usda"}) {
		t.Fatalf("scene files = %v", doc.SceneFiles.Files)
	}
	if _, err := os.Stat(filepath.Join(dir, "hero.mb")); !os.IsNotExist(err) {
		t.Fatal("source scene should not be copied unless requested")
	}
}

func TestCreateNewKeepsSourceSceneWhenRequested(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	source := testsupport.WriteScene(t, t.TempDir(), "hero.ma")
	runner := &testsupport.StubRunner{Stdout: mayaMarker + "\n"}
	ws := project.NewWorkspace(root,
		project.WithConverter(project.FileTypeMaya, newMayaConverter(t, runner)),
		project.WithKeepSourceScene(true),
	)
	proj, err := ws.CreateNew(context.Background(), "Hero", source, project.FileTypeMaya)
	if err != nil {
		t.Fatalf("CreateNew returned error: %v", err)
	}
	if got := proj.Store.Snapshot().SceneFiles.Files; !reflect.DeepEqual(got, []string{"hero.usda", "hero.ma"}) {
		t.Fatalf("scene files = %v", got)
	}
}

func TestCreateNewFailuresLeaveNoDirectory(t *testing.T) {
	source := testsupport.WriteScene(t, t.TempDir(), "hero.mb")
	cases := []struct {
		name   string
		handle func(testsupport.Call) (command.Result, error)
	}{
		{"marker missing", func(testsupport.Call) (command.Result, error) {
			return command.Result{Stdout: "Maya finished\n"}, nil
		}},
		{"non-zero exit", func(testsupport.Call) (command.Result, error) {
			return command.Result{ExitCode: 2, Stderr: "license error"}, nil
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "projects")
			runner := &testsupport.StubRunner{Handle: tc.handle}
			ws := project.NewWorkspace(root, project.WithConverter(project.FileTypeMaya, newMayaConverter(t, runner)))

			_, err := ws.CreateNew(context.Background(), "Hero", source, "")
			if !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected ErrExternalTool, got %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, "Hero")); !os.IsNotExist(err) {
				t.Fatalf("expected project directory to be removed, stat err = %v", err)
			}
		})
	}
}

func TestCreateNewRejectsExistingAndInvalid(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	source := testsupport.WriteScene(t, t.TempDir(), "shot.usda")
	ws := project.NewWorkspace(root)

	if err := os.MkdirAll(filepath.Join(root, "Alpha"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	marker := testsupport.WriteFile(t, filepath.Join(root, "Alpha", "keep.txt"), "untouched")
	if _, err := ws.CreateNew(context.Background(), "Alpha", source, ""); !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatal("existing project directory must not be touched")
	}

	for _, name := range []string{"", "a/b", ".."} {
		if _, err := ws.CreateNew(context.Background(), name, source, ""); !errors.Is(err, services.ErrInvalidConfiguration) {
			t.Fatalf("name %q: expected ErrInvalidConfiguration, got %v", name, err)
		}
	}
	if _, err := ws.CreateNew(context.Background(), "Beta", filepath.Join(root, "missing.usda"), ""); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing source, got %v", err)
	}
	houdiniScene := testsupport.WriteScene(t, t.TempDir(), "fx.hip")
	if _, err := ws.CreateNew(context.Background(), "Gamma", houdiniScene, ""); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration without a houdini converter, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Gamma")); !os.IsNotExist(err) {
		t.Fatal("no directory should be created when no converter is configured")
	}
}

func TestLoadExistingAndList(t *testing.T) {
	root := filepath.Join(t.TempDir(), "projects")
	source := testsupport.WriteScene(t, t.TempDir(), "shot.usda")
	ws := project.NewWorkspace(root)
	for _, name := range []string{"Beta", "Alpha"} {
		if _, err := ws.CreateNew(context.Background(), name, source, ""); err != nil {
			t.Fatalf("CreateNew(%s): %v", name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "stray"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	proj, err := ws.LoadExisting("@Alpha")
	if err != nil {
		t.Fatalf("LoadExisting returned error: %v", err)
	}
	if proj.Name != "Alpha" || proj.Store.Snapshot().ProjectTag != "@Alpha" {
		t.Fatalf("unexpected project %+v", proj)
	}
	if _, err := ws.LoadExisting("Beta"); err != nil {
		t.Fatalf("LoadExisting without tag mark: %v", err)
	}
	if _, err := ws.LoadExisting("@Nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	names, err := ws.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Alpha", "Beta"}) {
		t.Fatalf("List = %v", names)
	}

	empty, err := project.NewWorkspace(filepath.Join(t.TempDir(), "none")).List()
	if err != nil || len(empty) != 0 {
		t.Fatalf("List on missing root = %v, %v", empty, err)
	}
}

func TestDetectFileType(t *testing.T) {
	cases := map[string]project.FileType{
		"a.usd": project.FileTypeUSD, "a.USDA": project.FileTypeUSD, "a.usdc": project.FileTypeUSD,
		"a.ma": project.FileTypeMaya, "a.mb": project.FileTypeMaya,
		"a.hip": project.FileTypeHoudini, "a.hipnc": project.FileTypeHoudini, "a.hiplc": project.FileTypeHoudini,
		"a.abc": project.FileTypeOther, "noext": project.FileTypeOther,
	}
	for path, want := range cases {
		if got := project.DetectFileType(path); got != want {
			t.Fatalf("DetectFileType(%q) = %q, want %q", path, got, want)
		}
	}
	if _, err := project.ParseFileType("blender"); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	if ft, err := project.ParseFileType(" Maya "); err != nil || ft != project.FileTypeMaya {
		t.Fatalf("ParseFileType = %q, %v", ft, err)
	}
}
