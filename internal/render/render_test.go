package render_test

import (
	"path/filepath"
	"testing"

	"dccpipe/internal/metadata"
	"dccpipe/internal/render"
	"dccpipe/internal/services/houdini"
	"dccpipe/internal/services/maya"
	"dccpipe/internal/testsupport"
)

type fixture struct {
	dir    string
	store  *metadata.Store
	runner *testsupport.StubRunner
	tools  render.Tools
}

func newFixture(t *testing.T, sceneFiles ...string) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Alpha")
	for _, name := range sceneFiles {
		testsupport.WriteScene(t, dir, name)
	}
	doc := metadata.Default()
	doc.ProjectName = "Alpha"
	doc.ProjectTag = "@Alpha"
	doc.ProjectDir = dir
	doc.SceneFiles = metadata.NewSceneFiles(sceneFiles...)
	store, err := metadata.Create(filepath.Join(dir, "Config", "metadata.yaml"), doc, nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	runner := &testsupport.StubRunner{}
	mayaClient, err := maya.New("mayapy", []string{"maya_adapter.py"}, "", maya.WithRunner(runner))
	if err != nil {
		t.Fatalf("maya.New: %v", err)
	}
	houdiniClient, err := houdini.New("hython", []string{"houdini_adapter.py"}, "", houdini.WithRunner(runner))
	if err != nil {
		t.Fatalf("houdini.New: %v", err)
	}
	return &fixture{
		dir:    dir,
		store:  store,
		runner: runner,
		tools:  render.Tools{Arnold: mayaClient, Karma: houdiniClient},
	}
}

func (f *fixture) settings(t *testing.T, renderer string) render.Settings {
	t.Helper()
	settings, err := render.NewSettings(render.SettingsOptions{
		Renderer:  renderer,
		FPS:       24,
		OutputDir: filepath.Join(f.dir, "Renders"),
	})
	if err != nil {
		t.Fatalf("NewSettings returned error: %v", err)
	}
	return settings
}
