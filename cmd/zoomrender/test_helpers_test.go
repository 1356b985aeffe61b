package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"zoomrender/internal/config"
	"zoomrender/internal/decimalx"
	"zoomrender/internal/session"
	"zoomrender/internal/testsupport"
	"zoomrender/internal/trajectory"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("ZOOMRENDER_PROGRAM", "")
	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeSession saves a fresh session in dir and returns its path.
func writeSession(t *testing.T, dir string, totalFrames, rendered int) string {
	t.Helper()
	sess, err := session.Create(session.Options{
		Params: trajectory.Params{
			TotalFrames:     totalFrames,
			ZoomStart:       decimalx.MustParse("1"),
			ZoomEnd:         decimalx.MustParse("16"),
			CameraStart:     trajectory.Vec2{X: decimalx.MustParse("0"), Y: decimalx.MustParse("0")},
			CameraEnd:       trajectory.Vec2{X: decimalx.MustParse("-0.75"), Y: decimalx.MustParse("0.1")},
			IterationsBase:  512,
			IterationsScale: 64,
		},
		StartFrame: rendered,
	})
	if err != nil {
		t.Fatalf("session.Create: %v", err)
	}
	path := filepath.Join(dir, session.FileName)
	if err := sess.Save(path); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return path
}

// sessionDir returns the single video_* directory render created.
func sessionDir(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(env.cfg.Paths.OutputDir, "video_*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one session directory, got %v", matches)
	}
	return matches[0]
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
