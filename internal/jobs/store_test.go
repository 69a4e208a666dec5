package jobs_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"dccpipe/internal/jobs"
	"dccpipe/internal/services"
	"dccpipe/internal/testsupport"
)

func TestCreateGetUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobs(t, cfg)
	ctx := context.Background()

	job, err := store.Create(ctx, jobs.KindRender, "Alpha", "sh010")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.ID == "" || job.Status != jobs.StatusPending {
		t.Fatalf("unexpected new job %+v", job)
	}

	job.Status = jobs.StatusRunning
	job.RenderVersion = "rsv003"
	job.FramesTotal = 24
	job.FramesDone = 5
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Kind != jobs.KindRender || fetched.Project != "Alpha" || fetched.Shot != "sh010" ||
		fetched.RenderVersion != "rsv003" || fetched.FramesTotal != 24 || fetched.FramesDone != 5 ||
		fetched.Status != jobs.StatusRunning {
		t.Fatalf("unexpected fetched job %+v", fetched)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.Before(fetched.CreatedAt) {
		t.Fatalf("unexpected timestamps %v / %v", fetched.CreatedAt, fetched.UpdatedAt)
	}
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Update(context.Background(), &jobs.Job{ID: "missing"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, _ := store.Create(ctx, jobs.KindCreateProject, "Alpha", "")
	second, _ := store.Create(ctx, jobs.KindRender, "Alpha", "sh010")
	third, _ := store.Create(ctx, jobs.KindRender, "Beta", "sh020")
	second.Status = jobs.StatusCompleted
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := store.List(ctx, jobs.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Fatalf("expected newest first, got %v", ids(all))
	}

	alpha, err := store.List(ctx, jobs.ListOptions{Project: "Alpha"})
	if err != nil || len(alpha) != 2 {
		t.Fatalf("project filter returned %v, %v", ids(alpha), err)
	}
	done, err := store.List(ctx, jobs.ListOptions{Status: []jobs.Status{jobs.StatusCompleted}})
	if err != nil || len(done) != 1 || done[0].ID != second.ID {
		t.Fatalf("status filter returned %v, %v", ids(done), err)
	}
	limited, err := store.List(ctx, jobs.ListOptions{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit returned %v, %v", ids(limited), err)
	}
}

func TestResetRunningAndClear(t *testing.T) {
	store := testsupport.MustOpenJobs(t, testsupport.NewConfig(t))
	ctx := context.Background()

	running, _ := store.Create(ctx, jobs.KindRender, "Alpha", "sh010")
	running.Status = jobs.StatusRunning
	if err := store.Update(ctx, running); err != nil {
		t.Fatalf("Update: %v", err)
	}
	finished, _ := store.Create(ctx, jobs.KindRender, "Alpha", "sh020")
	finished.Status = jobs.StatusCompleted
	if err := store.Update(ctx, finished); err != nil {
		t.Fatalf("Update: %v", err)
	}

	n, err := store.ResetRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetRunning = %d, %v", n, err)
	}
	reset, _ := store.Get(ctx, running.ID)
	if reset.Status != jobs.StatusFailed || reset.ErrorMessage == "" {
		t.Fatalf("expected interrupted job to fail, got %+v", reset)
	}

	cleared, err := store.ClearCompleted(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("ClearCompleted = %d, %v", cleared, err)
	}
}

func TestReopenKeepsJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	job, err := store.Create(context.Background(), jobs.KindCreateProject, "Alpha", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenJobs(t, cfg)
	if _, err := reopened.Get(context.Background(), job.ID); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestOpenRejectsOtherHistoryLayout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.JobsDBPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	_ = db.Close()

	if _, err := jobs.Open(cfg); !errors.Is(err, jobs.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func ids(list []*jobs.Job) []string {
	out := make([]string, 0, len(list))
	for _, job := range list {
		out = append(out, job.ID)
	}
	return out
}
