package services_test

import (
	"context"
	"testing"

	"zoomrender/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sess-1")
	ctx = services.WithRunID(ctx, "run-9")
	ctx = services.WithFrame(ctx, 0)

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-9" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if frame, ok := services.FrameFromContext(ctx); !ok || frame != 0 {
		t.Fatalf("unexpected frame: %v %v", frame, ok)
	}
}

func TestBlankIDsPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.FrameFromContext(ctx); ok {
		t.Fatal("expected no frame value")
	}
}
