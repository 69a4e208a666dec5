package render_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dccpipe/internal/metadata"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
)

func TestNextRenderVersionSequence(t *testing.T) {
	f := newFixture(t, "alpha.usda")
	manager := render.NewManager(f.store)
	if got := manager.NextRenderVersion(); got != "rsv001" {
		t.Fatalf("NextRenderVersion = %q, want rsv001", got)
	}
	settings := f.settings(t, "Karma")
	for _, want := range []string{"rsv001", "rsv002", "rsv003"} {
		id, err := manager.NewRenderVersion(settings, "sh010")
		if err != nil {
			t.Fatalf("NewRenderVersion: %v", err)
		}
		if id != want {
			t.Fatalf("allocated %q, want %q", id, want)
		}
	}
	if latest, ok := manager.Latest(); !ok || latest != "rsv003" {
		t.Fatalf("Latest = %q, %v", latest, ok)
	}

	onDisk, err := metadata.Load(f.store.Path())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if onDisk.RenderSettings["rsv002"].Renderer != "Karma" || onDisk.Renders["rsv002"].Settings.Renderer != "Karma" {
		t.Fatal("expected settings snapshot in renderSettings and renders")
	}
}

func TestNextRenderVersionIgnoresMalformedKeys(t *testing.T) {
	f := newFixture(t)
	err := f.store.Update(func(doc *metadata.Document) error {
		doc.Renders["rsv007"] = metadata.RenderRecord{Frames: []int{}}
		doc.Renders["rsvABC"] = metadata.RenderRecord{Frames: []int{}}
		doc.Renders["rsv999x"] = metadata.RenderRecord{Frames: []int{}}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	manager := render.NewManager(f.store)
	if got := manager.NextRenderVersion(); got != "rsv008" {
		t.Fatalf("NextRenderVersion = %q, want rsv008", got)
	}
	if got := manager.RenderVersions(); !reflect.DeepEqual(got, []string{"rsv007", "rsv999x", "rsvABC"}) {
		t.Fatalf("RenderVersions = %v", got)
	}
}

func TestUpdateFrameIsIdempotentAndSorted(t *testing.T) {
	f := newFixture(t)
	manager := render.NewManager(f.store)
	id, err := manager.NewRenderVersion(f.settings(t, "Arnold"), "sh010")
	if err != nil {
		t.Fatalf("NewRenderVersion: %v", err)
	}
	for _, frame := range []int{5, 3, 5, 4} {
		if err := manager.UpdateFrame(id, frame); err != nil {
			t.Fatalf("UpdateFrame(%d): %v", frame, err)
		}
	}
	frames, err := manager.Frames(id)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if !reflect.DeepEqual(frames, []int{3, 4, 5}) {
		t.Fatalf("frames = %v", frames)
	}

	onDisk, err := metadata.Load(f.store.Path())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(onDisk.Renders[id].Frames, []int{3, 4, 5}) {
		t.Fatalf("frames on disk = %v", onDisk.Renders[id].Frames)
	}
}

func TestLoadedUnsortedFramesAreNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config", "metadata.yaml")
	manifest := "project_name: Alpha\nrenders:\n  rsv001:\n    shot: sh010\n    frames: [3, 1, 1]\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	store, err := metadata.Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	manager := render.NewManager(store)

	frames, err := manager.Frames("rsv001")
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if !reflect.DeepEqual(frames, []int{1, 3}) {
		t.Fatalf("frames after load = %v, want [1 3]", frames)
	}

	if err := manager.UpdateFrame("rsv001", 3); err != nil {
		t.Fatalf("UpdateFrame: %v", err)
	}
	if frames, _ := manager.Frames("rsv001"); !reflect.DeepEqual(frames, []int{1, 3}) {
		t.Fatalf("frames after recording an existing frame = %v, want [1 3]", frames)
	}
	onDisk, err := metadata.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(onDisk.Renders["rsv001"].Frames, []int{1, 3}) {
		t.Fatalf("frames on disk = %v, want [1 3]", onDisk.Renders["rsv001"].Frames)
	}
}

func TestUnknownVersionIsNotFound(t *testing.T) {
	manager := render.NewManager(newFixture(t).store)
	if err := manager.UpdateFrame("rsv042", 1); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("UpdateFrame: expected ErrNotFound, got %v", err)
	}
	if _, err := manager.Frames("rsv042"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Frames: expected ErrNotFound, got %v", err)
	}
	if _, err := manager.RenderInfo("rsv042"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("RenderInfo: expected ErrNotFound, got %v", err)
	}
	if _, ok := manager.Latest(); ok {
		t.Fatal("expected no latest version")
	}
}
