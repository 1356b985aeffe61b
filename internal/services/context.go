package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	runIDKey     contextKey = "run_id"
	frameKey     contextKey = "frame"
)

// WithSessionID annotates context with the render session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the render session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the identifier of one dispatcher run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFrame annotates context with the frame index being rendered.
func WithFrame(ctx context.Context, frame int) context.Context {
	return context.WithValue(ctx, frameKey, frame)
}

// FrameFromContext returns the frame index if present.
func FrameFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(frameKey).(int)
	return v, ok
}
