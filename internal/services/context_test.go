package services_test

import (
	"context"
	"testing"

	"dccpipe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProject(ctx, "alpha")
	ctx = services.WithRenderVersion(ctx, "rsv004")
	ctx = services.WithJobID(ctx, "job-1")
	ctx = services.WithRequestID(ctx, "req-123")

	if v, ok := services.ProjectFromContext(ctx); !ok || v != "alpha" {
		t.Fatalf("unexpected project: %v %v", v, ok)
	}
	if v, ok := services.RenderVersionFromContext(ctx); !ok || v != "rsv004" {
		t.Fatalf("unexpected render version: %v %v", v, ok)
	}
	if v, ok := services.JobIDFromContext(ctx); !ok || v != "job-1" {
		t.Fatalf("unexpected job id: %v %v", v, ok)
	}
	if v, ok := services.RequestIDFromContext(ctx); !ok || v != "req-123" {
		t.Fatalf("unexpected request id: %v %v", v, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProject(ctx, "")
	if _, ok := services.ProjectFromContext(ctx); ok {
		t.Fatal("expected no project value")
	}
}
