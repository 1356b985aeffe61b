package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"zoomrender/internal/dispatch"
	"zoomrender/internal/progresslog"
	"zoomrender/internal/renderer"
	"zoomrender/internal/session"
	"zoomrender/internal/testsupport"
)

func TestRenderCreatesSessionAndRendersEveryFrame(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	stdout, _, err := runCLI(t, env, "render", "--frames", "4", "--zoom-end", "16", "--", "--width", "64")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, stdout, "Session created at")
	requireContains(t, stdout, "PROGRESS: 100.0000% - Zoom level 4.0000")
	requireContains(t, stdout, "Rendering took")

	dir := sessionDir(t, env)
	if !strings.HasPrefix(filepath.Base(dir), "video_") {
		t.Fatalf("unexpected session dir %s", dir)
	}
	sess, err := session.Load(filepath.Join(dir, session.FileName))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.RenderedFrames != 4 || !sess.Complete() {
		t.Fatalf("expected 4 rendered frames, got %d", sess.RenderedFrames)
	}
	if !slices.Equal(sess.ExtraProgramArguments, []string{"--width", "64"}) {
		t.Fatalf("passthrough args not stored: %v", sess.ExtraProgramArguments)
	}

	entries, err := progresslog.Read(filepath.Join(dir, progresslog.FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Frame != i {
			t.Fatalf("entry %d has frame %d", i, e.Frame)
		}
		requireContains(t, e.Command, "--width 64")
	}
	for i := range 4 {
		if _, err := os.Stat(filepath.Join(dir, framesDirName, renderer.FrameFileName(i))); err != nil {
			t.Fatalf("frame %d missing: %v", i, err)
		}
	}
}

func TestRenderRejectsArgumentsWithoutDash(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	_, _, err := runCLI(t, env, "render", "--frames", "3", "stray")
	if err == nil || !strings.Contains(err.Error(), "pass renderer arguments after --") {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if matches, _ := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "video_*")); len(matches) != 0 {
		t.Fatalf("no session should be created, found %v", matches)
	}
}

func TestRenderRejectsInvalidTrajectory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	cases := map[string][]string{
		"one frame":     {"render", "--frames", "1"},
		"zero zoom":     {"render", "--zoom-start", "0"},
		"bad decimal":   {"render", "--cx0", "abc"},
		"bad formula":   {"render", "--iteration-formula", "cubic"},
		"bad retry cap": {"render", "--retry-limit", "0"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := runCLI(t, env, args...); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}

func TestRenderStopsAfterRetryLimit(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFailingRenderer(), testsupport.WithRetryLimit(2))

	_, _, err := runCLI(t, env, "render", "--frames", "3")
	var exhausted *dispatch.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Frame != 0 || exhausted.Attempts != 2 {
		t.Fatalf("unexpected exhaustion detail: frame=%d attempts=%d", exhausted.Frame, exhausted.Attempts)
	}
	requireContains(t, exhausted.LastDiagnostic, "MPI_ABORT")

	dir := sessionDir(t, env)
	sess, err := session.Load(filepath.Join(dir, session.FileName))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.RenderedFrames != 0 {
		t.Fatalf("session advanced to %d", sess.RenderedFrames)
	}
	entries, err := progresslog.Read(filepath.Join(dir, progresslog.FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(entries))
	}
}

func TestRenderFailsPreflightForMissingProgram(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, env, "render", "--frames", "3")
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
	requireContains(t, stderr, "Renderer")
}

func TestRenderWithEncodeWritesVideo(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	stdout, _, err := runCLI(t, env, "render", "--frames", "2", "--encode")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, stdout, "Video written to")
	if _, err := os.Stat(filepath.Join(sessionDir(t, env), defaultVideoOut)); err != nil {
		t.Fatalf("video missing: %v", err)
	}
}

func TestResumeContinuesFromSavedFrame(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	dir := filepath.Join(env.cfg.Paths.OutputDir, "video_resume")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := writeSession(t, dir, 5, 3)

	stdout, _, err := runCLI(t, env, "resume", dir)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	requireContains(t, stdout, "Loaded session located at "+path)

	sess, err := session.Load(path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if sess.RenderedFrames != 5 {
		t.Fatalf("expected 5 rendered frames, got %d", sess.RenderedFrames)
	}
	entries, err := progresslog.Read(filepath.Join(dir, progresslog.FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(entries) != 2 || entries[0].Frame != 3 || entries[1].Frame != 4 {
		t.Fatalf("expected frames 3 and 4 logged, got %+v", entries)
	}
}

func TestResumeRejectsCorruptSession(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, session.FileName), []byte(`{"version":1,"total_frames":"x"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := runCLI(t, env, "resume", dir)
	var corrupt *session.CorruptSessionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptSessionError, got %v", err)
	}
}

func TestResumeRefusesLockedSession(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	path := writeSession(t, t.TempDir(), 3, 0)
	lock, err := session.AcquireLock(path)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, env, "resume", path)
	if !errors.Is(err, session.ErrSessionLocked) {
		t.Fatalf("expected ErrSessionLocked, got %v", err)
	}
}
