package daemonctl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dccpipe/internal/daemonctl"
)

func TestStatusSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"running":true,"pid":42,"workflow":{"busy":false}}`))
	}))
	defer srv.Close()

	status, err := daemonctl.NewWithURL(srv.URL, "tok").Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status %+v", status)
	}

	_, err = daemonctl.NewWithURL(srv.URL, "wrong").Status(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestJobsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("project") != "Alpha" || len(r.URL.Query()["status"]) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"jobs":[{"id":"a","kind":"render","project":"Alpha","status":"failed"}]}`))
	}))
	defer srv.Close()

	resp, err := daemonctl.NewWithURL(srv.URL, "").Jobs(context.Background(), "Alpha", "failed", "completed")
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].ID != "a" {
		t.Fatalf("unexpected jobs %+v", resp.Jobs)
	}
}

func TestNotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := daemonctl.NewWithURL(url, "").Status(context.Background())
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
