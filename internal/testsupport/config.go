// Package testsupport builds isolated configurations, stub programs, and
// stores for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"zoomrender/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The renderer runs without an MPI launcher.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Renderer.Launcher = ""
	cfgVal.Renderer.HostFile = ""
	cfgVal.Renderer.NetInterface = ""
	cfgVal.Renderer.Program = filepath.Join(base, "bin", "mandelbrot")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.OutputDir, cfgVal.Paths.LogDir, filepath.Dir(cfgVal.Paths.HistoryDB)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithStubbedBinaries writes a renderer that creates its -od file and an
// ffmpeg that creates its output file, and points the config at them.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Renderer.Program = WriteExecutable(b.t, binDir, "mandelbrot", RendererScript)
		b.cfg.Encoder.FFmpeg = WriteExecutable(b.t, binDir, "ffmpeg", FFmpegScript)
	}
}

// WithFailingRenderer installs a renderer that always exits 1 with a
// diagnostic on stderr.
func WithFailingRenderer() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Renderer.Program = WriteExecutable(b.t, binDir, "mandelbrot", FailingRendererScript)
	}
}

// WithRetryLimit overrides renderer.retry_limit.
func WithRetryLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.RetryLimit = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

// WriteConfig serializes cfg as TOML at path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
