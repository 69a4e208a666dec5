package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"dccpipe/internal/preflight"
	"dccpipe/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Maya.Python = "clearly-not-mayapy"
	cfg.Houdini.Python = "clearly-not-hython"

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 7 {
		t.Fatalf("expected 7 checks, got %d", len(results))
	}
	failed := preflight.Failed(results)
	if len(failed) != 4 {
		t.Fatalf("expected interpreters and adapters to fail, got %+v", failed)
	}
	for _, result := range results[:3] {
		if !result.Passed {
			t.Fatalf("directory check failed: %+v", result)
		}
	}
}

func TestRunAllPassesWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithAdapterScripts())
	if failed := preflight.Failed(preflight.RunAll(context.Background(), cfg)); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestCheckDaemon_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"running":true,"workflow":{"busy":true}}`))
	}))
	defer srv.Close()

	result := preflight.CheckDaemon(context.Background(), srv.URL, "good")
	if !result.Passed || result.Detail != "Reachable (job running)" {
		t.Fatalf("unexpected result %+v", result)
	}
	if bad := preflight.CheckDaemon(context.Background(), srv.URL, "bad"); bad.Passed {
		t.Fatal("expected failure for bad token")
	}
}

func TestCheckDaemon_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	result := preflight.CheckDaemon(context.Background(), url, "")
	if result.Passed || !result.Optional {
		t.Fatalf("expected optional failure, got %+v", result)
	}
}

func TestDaemonURL(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"127.0.0.1:7490":       "http://127.0.0.1:7490",
		":7490":                "http://127.0.0.1:7490",
		"http://render01:7490": "http://render01:7490",
	}
	for bind, want := range cases {
		if got := preflight.DaemonURL(bind); got != want {
			t.Fatalf("DaemonURL(%q) = %q, want %q", bind, got, want)
		}
	}
}

func TestInspectHost(t *testing.T) {
	report := preflight.InspectHost(context.Background(), t.TempDir())
	if report.LogicalCPUs <= 0 && len(report.Warnings) == 0 {
		t.Fatalf("expected a cpu count or a warning, got %+v", report)
	}
}
