package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zoomrender/internal/config"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
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
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	dir := t.TempDir()
	hostfile := filepath.Join(dir, "hostfile")
	if err := os.WriteFile(hostfile, []byte("node1 slots=8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFileReadable("hostfile", hostfile); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckFileReadable("hostfile", dir); r.Passed {
		t.Fatal("expected failure for directory")
	}
	if r := CheckFileReadable("hostfile", filepath.Join(dir, "absent")); r.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckNetInterface(t *testing.T) {
	if r := CheckNetInterface("lo"); !r.Passed {
		t.Skipf("loopback unavailable: %s", r.Detail)
	}
	if r := CheckNetInterface("zr-does-not-exist0"); r.Passed {
		t.Fatal("expected failure for unknown interface")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectInvocation(t *testing.T) {
	bin := t.TempDir()
	cfg := config.Default()
	cfg.Renderer.Program = writeExecutable(t, bin, "mandelbrot")
	cfg.Renderer.Launcher = ""
	cfg.Encoder.FFmpeg = writeExecutable(t, bin, "ffmpeg")
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	results := RunAll(context.Background(), &cfg, Options{})
	// renderer, ffmpeg, output dir, history dir
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingLauncherAndHostfile(t *testing.T) {
	bin := t.TempDir()
	cfg := config.Default()
	cfg.Renderer.Program = writeExecutable(t, bin, "mandelbrot")
	cfg.Renderer.Launcher = "zr-missing-mpirun"
	cfg.Renderer.HostFile = filepath.Join(bin, "absent-hostfile")
	cfg.Renderer.NetInterface = ""
	cfg.Paths.HistoryDB = ""

	override := t.TempDir()
	results := RunAll(context.Background(), &cfg, Options{OutputDir: override, SkipEncoder: true})
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected launcher and hostfile failures, got %+v", failed)
	}
	for _, r := range results {
		if r.Name == "FFmpeg" {
			t.Fatal("encoder check should be skipped")
		}
		if r.Name == "Output directory" && !strings.Contains(r.Detail, override) {
			t.Fatalf("output override ignored: %s", r.Detail)
		}
	}
}
