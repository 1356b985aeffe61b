package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"zoomrender/internal/config"
	"zoomrender/internal/trajectory"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, key := range []string{"ZOOMRENDER_PROGRAM", "ZOOMRENDER_HOSTFILE", "ZOOMRENDER_NET_INTERFACE", "ZOOMRENDER_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(home, ".config", "zoomrender", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(home, ".local", "share", "zoomrender", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Renderer.Launcher != "mpirun" || cfg.Renderer.Processes != 16 {
		t.Fatalf("unexpected launcher defaults: %+v", cfg.Renderer)
	}
	if cfg.Renderer.RetryLimit != 5 {
		t.Fatalf("expected retry limit 5, got %d", cfg.Renderer.RetryLimit)
	}
	if cfg.IterationFormula() != trajectory.FormulaLog2 {
		t.Fatalf("expected log2 formula, got %q", cfg.IterationFormula())
	}
	if cfg.DiagnosticLimitBytes() != 64*1024 {
		t.Fatalf("unexpected diagnostic limit %d", cfg.DiagnosticLimitBytes())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "zoomrender.toml")

	type payload struct {
		Renderer struct {
			Program   string `toml:"program"`
			Launcher  string `toml:"launcher"`
			Processes int    `toml:"np"`
		} `toml:"renderer"`
		Trajectory struct {
			IterationFormula string `toml:"iteration_formula"`
		} `toml:"trajectory"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Renderer.Program = "/opt/fractal/render"
	custom.Renderer.Launcher = ""
	custom.Renderer.Processes = 4
	custom.Trajectory.IterationFormula = "LOG2P1"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Renderer.Program != "/opt/fractal/render" {
		t.Fatalf("expected program from file, got %q", cfg.Renderer.Program)
	}
	if cfg.Renderer.Launcher != "" {
		t.Fatalf("expected launcher disabled, got %q", cfg.Renderer.Launcher)
	}
	if cfg.IterationFormula() != trajectory.FormulaLog2Plus1 {
		t.Fatalf("expected log2p1 formula, got %q", cfg.IterationFormula())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "zoomrender.toml")
	if err := os.WriteFile(configPath, []byte("[renderer]\nprogramm = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	isolate(t)
	configPath := filepath.Join(t.TempDir(), "zoomrender.toml")
	if err := os.WriteFile(configPath, []byte("[renderer]\nprogram = \"file-program\"\nhostfile = \"file-hosts\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ZOOMRENDER_PROGRAM", "env-program")
	t.Setenv("ZOOMRENDER_HOSTFILE", "env-hosts")
	t.Setenv("ZOOMRENDER_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Renderer.Program != "env-program" {
		t.Errorf("expected program from env, got %q", cfg.Renderer.Program)
	}
	if cfg.Renderer.HostFile != "env-hosts" {
		t.Errorf("expected hostfile from env, got %q", cfg.Renderer.HostFile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level from env, got %q", cfg.Logging.Level)
	}
}

func TestDotEnvSuppliesFallbacks(t *testing.T) {
	isolate(t)
	os.Unsetenv("ZOOMRENDER_NET_INTERFACE")
	t.Cleanup(func() { os.Unsetenv("ZOOMRENDER_NET_INTERFACE") })
	if err := os.WriteFile(".env", []byte("ZOOMRENDER_NET_INTERFACE=ib0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Renderer.NetInterface != "ib0" {
		t.Fatalf("expected interface from .env, got %q", cfg.Renderer.NetInterface)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[renderer]") {
		t.Fatalf("sample config missing renderer section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Renderer.RetryLimit != 5 {
		t.Fatalf("expected sample retry limit 5, got %d", cfg.Renderer.RetryLimit)
	}
	if cfg.Encoder.Preset != "veryslow" {
		t.Fatalf("expected sample preset veryslow, got %q", cfg.Encoder.Preset)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"empty program":   func(c *config.Config) { c.Renderer.Program = "" },
		"zero processes":  func(c *config.Config) { c.Renderer.Processes = 0 },
		"zero retries":    func(c *config.Config) { c.Renderer.RetryLimit = 0 },
		"negative base":   func(c *config.Config) { c.Trajectory.IterationsBase = -1 },
		"unknown formula": func(c *config.Config) { c.Trajectory.IterationFormula = "cubic" },
		"crf range":       func(c *config.Config) { c.Encoder.CRF = 99 },
		"bad listen":      func(c *config.Config) { c.Server.Listen = "nope" },
		"bad level":       func(c *config.Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := config.Default()
	cfg.Renderer.Launcher = ""
	cfg.Renderer.Processes = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("direct invocation should not require np: %v", err)
	}
}
