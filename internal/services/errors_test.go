package services_test

import (
	"errors"
	"strings"
	"testing"

	"dccpipe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "maya", "export_usd", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"maya", "export_usd", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "render", "frames", "rsv009", nil), "not_found"},
		{services.Wrap(services.ErrAlreadyExists, "project", "create", "", nil), "already_exists"},
		{services.Wrap(services.ErrInvalidConfiguration, "render", "settings", "fps", nil), "invalid_configuration"},
		{&services.ToolError{Tool: "mayapy", ExitCode: 1}, "external_tool"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestToolErrorPrefersStderrTail(t *testing.T) {
	err := &services.ToolError{Tool: "hython", ExitCode: 3, Stdout: "progress", Stderr: "license checkout failed\n"}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatal("expected tool error to unwrap to ErrExternalTool")
	}
	msg := err.Error()
	if !strings.Contains(msg, "status 3") || !strings.Contains(msg, "license checkout failed") {
		t.Fatalf("unexpected message %q", msg)
	}

	long := strings.Repeat("x", 5000)
	err = &services.ToolError{Tool: "mayapy", ExitCode: 1, Stdout: long}
	if got := err.Error(); len(got) > 2100 || !strings.Contains(got, "...") {
		t.Fatalf("expected truncated output, got %d bytes", len(got))
	}
}
