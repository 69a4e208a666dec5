package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dccpipe/internal/jobs"
	"dccpipe/internal/metadata"
	"dccpipe/internal/services"
	"dccpipe/internal/testsupport"
)

func TestProjectShotRenderFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	scene := testsupport.WriteScene(t, env.baseDir, "layout.usda")

	out := env.run(t, "project", "create", "Alpha", scene)
	requireContains(t, out, "Created project Alpha")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.RootDir, "Alpha", "layout.usda")); err != nil {
		t.Fatalf("scene not imported: %v", err)
	}

	requireContains(t, env.run(t, "project", "list"), "Alpha")

	env.run(t, "shot", "add", "Alpha", "sh010", "1-3")
	env.run(t, "shot", "update", "Alpha", "sh010", "--range", "1-2")
	requireContains(t, env.run(t, "shot", "list", "Alpha"), "sh010")

	out = env.run(t, "render", "start", "Alpha", "sh010", "--renderer", "karma")
	requireContains(t, out, "Rendered Alpha rsv001: 2/2 frames")

	requireContains(t, env.run(t, "render", "versions", "Alpha"), "rsv001")

	var record metadata.RenderRecord
	if err := json.Unmarshal([]byte(env.run(t, "--json", "render", "info", "Alpha", "rsv001")), &record); err != nil {
		t.Fatalf("decode render info: %v", err)
	}
	if record.Shot != "sh010" || record.Settings.Renderer != "Karma" {
		t.Fatalf("unexpected record %+v", record)
	}
	if len(record.Frames) != 2 || record.Frames[0] != 1 || record.Frames[1] != 2 {
		t.Fatalf("unexpected frames %v", record.Frames)
	}

	out = env.run(t, "project", "tree", "Alpha")
	requireContains(t, out, "sh010 [1-2]")
	requireContains(t, out, "rsv001 sh010 (Karma) frames: 1-2")

	var listed []*jobs.Job
	if err := json.Unmarshal([]byte(env.run(t, "--json", "jobs", "list")), &listed); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(listed))
	}
	for _, job := range listed {
		if job.Status != jobs.StatusCompleted {
			t.Fatalf("job %s status %s", job.ID, job.Status)
		}
	}

	requireContains(t, env.run(t, "jobs", "clear"), "Removed 2 completed job(s)")
}

func TestShotCommandErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	scene := testsupport.WriteScene(t, env.baseDir, "layout.usda")
	env.run(t, "project", "create", "Alpha", scene)

	_, _, err := runCLI(t, []string{"shot", "add", "Missing", "sh010", "1-2"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown project, got %v", err)
	}

	_, _, err = runCLI(t, []string{"shot", "add", "Alpha", "sh010", "5-1"}, env.configPath)
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for inverted range, got %v", err)
	}

	env.run(t, "shot", "add", "Alpha", "sh010", "1-2")
	_, _, err = runCLI(t, []string{"shot", "add", "Alpha", "sh010", "3-4"}, env.configPath)
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate shot, got %v", err)
	}

	_, _, err = runCLI(t, []string{"shot", "update", "Alpha", "sh010"}, env.configPath)
	if err == nil {
		t.Fatal("expected update without flags to fail")
	}

	requireContains(t, env.run(t, "shot", "remove", "Alpha", "sh010"), "Removed shot sh010")
	requireContains(t, env.run(t, "shot", "list", "Alpha"), "No shots")
}

func TestShotEditRefusedWhileLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	scene := testsupport.WriteScene(t, env.baseDir, "layout.usda")
	env.run(t, "project", "create", "Alpha", scene)

	ctx := newCommandContext(&env.configPath, nil)
	proj, err := ctx.loadProject("Alpha")
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	unlock, err := proj.Lock()
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer func() { _ = unlock() }()

	_, _, err = runCLI(t, []string{"shot", "add", "Alpha", "sh010", "1-2"}, env.configPath)
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestRenderStartValidatesBeforeQueueing(t *testing.T) {
	env := setupCLITestEnv(t)
	scene := testsupport.WriteScene(t, env.baseDir, "layout.usda")
	env.run(t, "project", "create", "Alpha", scene)

	_, _, err := runCLI(t, []string{"render", "start", "Alpha", "nope"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown shot, got %v", err)
	}

	env.run(t, "shot", "add", "Alpha", "sh010", "1-2")
	_, _, err = runCLI(t, []string{"render", "start", "Alpha", "sh010", "--renderer", "cycles"}, env.configPath)
	if !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for unknown renderer, got %v", err)
	}

	out := env.run(t, "render", "versions", "Alpha")
	requireContains(t, out, "No render versions")
	var listed []*jobs.Job
	if err := json.Unmarshal([]byte(env.run(t, "--json", "jobs", "list")), &listed); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	if len(listed) != 1 || listed[0].Kind != jobs.KindCreateProject {
		t.Fatalf("rejected renders must not leave job rows, got %+v", listed)
	}
}

func TestProjectCreateRejectsDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)
	scene := testsupport.WriteScene(t, env.baseDir, "layout.usda")
	env.run(t, "project", "create", "Alpha", scene)

	_, _, err := runCLI(t, []string{"project", "create", "Alpha", scene}, env.configPath)
	if !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
