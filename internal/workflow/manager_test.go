package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dccpipe/internal/config"
	"dccpipe/internal/jobs"
	"dccpipe/internal/project"
	"dccpipe/internal/render"
	"dccpipe/internal/services"
	"dccpipe/internal/services/command"
	"dccpipe/internal/testsupport"
	"dccpipe/internal/workflow"
)

type harness struct {
	cfg     *config.Config
	runner  *testsupport.StubRunner
	store   *jobs.Store
	ws      *project.Workspace
	manager *workflow.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	runner := &testsupport.StubRunner{Stdout: cfg.Maya.SuccessMarker + "\n"}
	clients, err := workflow.NewClients(cfg, nil, runner)
	if err != nil {
		t.Fatalf("NewClients: %v", err)
	}
	store := testsupport.MustOpenJobs(t, cfg)
	ws := workflow.NewWorkspace(cfg, clients, nil)
	manager := workflow.NewManager(cfg, ws, clients.RenderTools(), store, nil)
	t.Cleanup(manager.Close)
	return &harness{cfg: cfg, runner: runner, store: store, ws: ws, manager: manager}
}

func (h *harness) createProject(t *testing.T, name string, shotStart, shotEnd int) *project.Project {
	t.Helper()
	source := testsupport.WriteScene(t, t.TempDir(), "scene.usda")
	proj, err := h.ws.CreateNew(context.Background(), name, source, "")
	if err != nil {
		t.Fatalf("CreateNew: %v", err)
	}
	if err := proj.Store.AddShot("sh010", shotStart, shotEnd); err != nil {
		t.Fatalf("AddShot: %v", err)
	}
	return proj
}

func (h *harness) finished(t *testing.T, id string) *jobs.Job {
	t.Helper()
	h.manager.Wait()
	job, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get job: %v", err)
	}
	return job
}

func TestSubmitCreateProjectConvertsMayaScene(t *testing.T) {
	h := newHarness(t)
	source := testsupport.WriteScene(t, t.TempDir(), "hero.mb")

	job, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Hero", Source: source})
	if err != nil {
		t.Fatalf("SubmitCreateProject: %v", err)
	}
	if job.Kind != jobs.KindCreateProject || job.Project != "Hero" {
		t.Fatalf("unexpected job %+v", job)
	}
	done := h.finished(t, job.ID)
	if done.Status != jobs.StatusCompleted {
		t.Fatalf("job status = %s (%s)", done.Status, done.ErrorMessage)
	}
	if calls := h.runner.Calls(); len(calls) != 1 || calls[0].Binary != "mayapy" {
		t.Fatalf("expected one mayapy conversion, got %+v", calls)
	}
	if _, err := h.ws.LoadExisting("@Hero"); err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}
}

func TestSubmitCreateProjectValidatesSynchronously(t *testing.T) {
	h := newHarness(t)
	h.createProject(t, "Alpha", 1, 1)
	source := testsupport.WriteScene(t, t.TempDir(), "scene.usda")

	if _, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Alpha", Source: source}); !errors.Is(err, services.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Beta", Source: filepath.Join(t.TempDir(), "nope.usda")}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Beta", Source: source, FileType: "blend"}); !errors.Is(err, services.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	list, err := h.store.List(context.Background(), jobs.ListOptions{})
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no job records, got %d (%v)", len(list), err)
	}
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	h.runner.Handle = func(testsupport.Call) (command.Result, error) {
		started <- struct{}{}
		<-release
		return command.Result{Stdout: h.cfg.Maya.SuccessMarker + "\n"}, nil
	}
	first := testsupport.WriteScene(t, t.TempDir(), "one.ma")
	second := testsupport.WriteScene(t, t.TempDir(), "two.ma")

	job, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "One", Source: first})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}
	if !h.manager.Status().Busy {
		t.Fatal("expected manager to report busy")
	}

	if _, err := h.manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Two", Source: second}); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(release)
	if done := h.finished(t, job.ID); done.Status != jobs.StatusCompleted {
		t.Fatalf("first job status = %s", done.Status)
	}
	list, _ := h.store.List(context.Background(), jobs.ListOptions{})
	if len(list) != 1 {
		t.Fatalf("rejected submit must not create a job record, found %d", len(list))
	}
	if status := h.manager.Status(); status.Busy || status.LastJob == nil || status.LastJob.ID != job.ID {
		t.Fatalf("unexpected status after completion %+v", status)
	}
}

func TestSubmitRenderRecordsProgress(t *testing.T) {
	h := newHarness(t)
	h.createProject(t, "Alpha", 1, 3)

	job, err := h.manager.SubmitRender(context.Background(), workflow.RenderRequest{
		Project:  "@Alpha",
		Shot:     "sh010",
		Settings: render.SettingsOptions{Renderer: "karma"},
	})
	if err != nil {
		t.Fatalf("SubmitRender: %v", err)
	}
	done := h.finished(t, job.ID)
	if done.Status != jobs.StatusCompleted || done.RenderVersion != "rsv001" || done.FramesDone != 3 || done.FramesTotal != 3 {
		t.Fatalf("unexpected finished job %+v", done)
	}
	proj, err := h.ws.LoadExisting("Alpha")
	if err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}
	record, err := proj.Manager().RenderInfo("rsv001")
	if err != nil {
		t.Fatalf("RenderInfo: %v", err)
	}
	if record.Settings.OutputDir != proj.RendersDir() || record.Settings.FPS != h.cfg.Render.FPS {
		t.Fatalf("settings defaults not applied: %+v", record.Settings)
	}
}

func TestSubmitRenderValidationErrors(t *testing.T) {
	h := newHarness(t)
	h.createProject(t, "Alpha", 1, 3)
	ctx := context.Background()

	cases := []struct {
		name string
		req  workflow.RenderRequest
		want error
	}{
		{"unknown project", workflow.RenderRequest{Project: "Nope", Shot: "sh010"}, services.ErrNotFound},
		{"unknown shot", workflow.RenderRequest{Project: "Alpha", Shot: "sh999"}, services.ErrNotFound},
		{"bad fps", workflow.RenderRequest{Project: "Alpha", Shot: "sh010", Settings: render.SettingsOptions{FPS: 500}}, services.ErrInvalidConfiguration},
		{"no maya scene for arnold", workflow.RenderRequest{Project: "Alpha", Shot: "sh010", Settings: render.SettingsOptions{Renderer: "Arnold"}}, services.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := h.manager.SubmitRender(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if list, _ := h.store.List(ctx, jobs.ListOptions{}); len(list) != 0 {
		t.Fatalf("validation failures must not create jobs, found %d", len(list))
	}
	if len(h.runner.Calls()) != 0 {
		t.Fatal("validation failures must not launch processes")
	}
}

func TestFailedRenderThenResume(t *testing.T) {
	h := newHarness(t)
	h.createProject(t, "Alpha", 1, 3)
	fail := true
	h.runner.Handle = func(call testsupport.Call) (command.Result, error) {
		if frame, _ := call.Flag("--frame"); frame == "2" && fail {
			return command.Result{ExitCode: 1, Stderr: "karma: out of memory"}, nil
		}
		return command.Result{}, nil
	}

	job, err := h.manager.SubmitRender(context.Background(), workflow.RenderRequest{
		Project: "Alpha", Shot: "sh010", Settings: render.SettingsOptions{Renderer: "Karma"},
	})
	if err != nil {
		t.Fatalf("SubmitRender: %v", err)
	}
	failed := h.finished(t, job.ID)
	if failed.Status != jobs.StatusFailed || failed.FramesDone != 1 || failed.ErrorMessage == "" {
		t.Fatalf("unexpected failed job %+v", failed)
	}

	fail = false
	resume, err := h.manager.SubmitResume(context.Background(), "Alpha", "rsv001")
	if err != nil {
		t.Fatalf("SubmitResume: %v", err)
	}
	resumed := h.finished(t, resume.ID)
	if resumed.Status != jobs.StatusCompleted || resumed.FramesDone != 3 || resumed.RenderVersion != "rsv001" {
		t.Fatalf("unexpected resumed job %+v", resumed)
	}
	if _, err := h.manager.SubmitResume(context.Background(), "Alpha", "rsv009"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type recordingNotifier struct {
	jobs []jobs.Job
}

func (r *recordingNotifier) JobFinished(_ context.Context, job *jobs.Job) error {
	r.jobs = append(r.jobs, *job)
	return errors.New("ntfy unreachable")
}

func TestNotifierSeesFinalJobState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clients, err := workflow.NewClients(cfg, nil, &testsupport.StubRunner{})
	if err != nil {
		t.Fatalf("NewClients: %v", err)
	}
	notifier := &recordingNotifier{}
	manager := workflow.NewManager(cfg, workflow.NewWorkspace(cfg, clients, nil), clients.RenderTools(),
		testsupport.MustOpenJobs(t, cfg), nil, workflow.WithNotifier(notifier))
	t.Cleanup(manager.Close)

	source := testsupport.WriteScene(t, t.TempDir(), "scene.usda")
	job, err := manager.SubmitCreateProject(context.Background(), workflow.CreateRequest{Name: "Alpha", Source: source})
	if err != nil {
		t.Fatalf("SubmitCreateProject: %v", err)
	}
	manager.Wait()

	if len(notifier.jobs) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.jobs))
	}
	got := notifier.jobs[0]
	if got.ID != job.ID || got.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected notified job %+v", got)
	}
	if status := manager.Status(); status.LastError != "" {
		t.Fatalf("notification failure must not fail the job, last error %q", status.LastError)
	}
}
