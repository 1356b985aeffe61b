package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Resolved != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Resolved)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if !strings.Contains(results[1].Detail, "not found") {
		t.Fatalf("unexpected detail: %s", results[1].Detail)
	}

	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %s", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestCheckBinariesRelativeProgram(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "mandelbrot"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := CheckBinaries([]Requirement{
		{Name: "Renderer", Command: "./mandelbrot"},
		{Name: "Not executable", Command: "./notes.txt"},
		{Name: "Absent", Command: "./absent"},
	})
	if !results[0].Available || !filepath.IsAbs(results[0].Resolved) {
		t.Fatalf("expected relative program to resolve, got %#v", results[0])
	}
	if results[1].Available || !strings.Contains(results[1].Detail, "not executable") {
		t.Fatalf("expected not-executable detail, got %#v", results[1])
	}
	if results[2].Available || !strings.Contains(results[2].Detail, "does not exist") {
		t.Fatalf("expected does-not-exist detail, got %#v", results[2])
	}
}
