package encoder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"zoomrender/internal/encoder"
	"zoomrender/internal/procexec"
	"zoomrender/internal/services"
)

type stubExecutor struct {
	binary string
	args   []string
	lines  []string
	result procexec.Result
	err    error
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, onStdout func(string)) (procexec.Result, error) {
	s.binary = binary
	s.args = args
	for _, line := range s.lines {
		if onStdout != nil {
			onStdout(line)
		}
	}
	return s.result, s.err
}

func defaultSettings() encoder.Settings {
	return encoder.Settings{FFmpeg: "ffmpeg", Framerate: 60, Codec: "libx264", Preset: "veryslow", CRF: 18, PixFmt: "yuv420p"}
}

func framesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frame_0.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestArgsMatchDefaultPipeline(t *testing.T) {
	enc, err := encoder.New(defaultSettings())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := enc.Command(encoder.Job{FramesDir: "/out/frames", OutputPath: "/out/video.mp4"})
	want := []string{
		"ffmpeg", "-framerate", "60", "-i", "/out/frames/frame_%d.png",
		"-c:v", "libx264", "-preset", "veryslow", "-crf", "18", "-pix_fmt", "yuv420p",
		"-progress", "pipe:1", "-nostats", "/out/video.mp4", "-y",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("argv mismatch\n got %q\nwant %q", got, want)
	}
}

func TestEncodeReportsProgress(t *testing.T) {
	stub := &stubExecutor{lines: []string{"frame=10", "fps=30.0", "frame=20", "progress=end"}}
	var seen []int
	enc, err := encoder.New(defaultSettings(), encoder.WithExecutor(stub), encoder.WithProgress(func(n int) {
		seen = append(seen, n)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := framesDir(t)
	if err := enc.Encode(context.Background(), encoder.Job{FramesDir: dir, OutputPath: filepath.Join(dir, "..", "video.mp4")}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !slices.Equal(seen, []int{10, 20}) {
		t.Fatalf("progress = %v", seen)
	}
	if stub.binary != "ffmpeg" {
		t.Fatalf("binary = %q", stub.binary)
	}
}

func TestEncodeRequiresFirstFrame(t *testing.T) {
	enc, err := encoder.New(defaultSettings(), encoder.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = enc.Encode(context.Background(), encoder.Job{FramesDir: t.TempDir(), OutputPath: "x.mp4"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEncodeWrapsToolFailure(t *testing.T) {
	stub := &stubExecutor{
		result: procexec.Result{ExitCode: 1, Diagnostic: "ffmpeg version 6\nframe_%d.png: No such file"},
		err:    errors.New("exit status 1"),
	}
	enc, err := encoder.New(defaultSettings(), encoder.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := framesDir(t)
	err = enc.Encode(context.Background(), encoder.Job{FramesDir: dir, OutputPath: filepath.Join(dir, "v.mp4")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNewValidatesSettings(t *testing.T) {
	s := defaultSettings()
	s.Framerate = 0
	if _, err := encoder.New(s); err == nil {
		t.Fatal("expected error for zero framerate")
	}
}
