package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	HistoryDB string `toml:"history_db"`
}

// Renderer describes how the external fractal renderer is launched.
type Renderer struct {
	Program            string `toml:"program"`
	Launcher           string `toml:"launcher"`
	HostFile           string `toml:"hostfile"`
	Processes          int    `toml:"np"`
	NetInterface       string `toml:"net_interface"`
	RetryLimit         int    `toml:"retry_limit"`
	DiagnosticLimitKiB int    `toml:"diagnostic_limit_kib"`
}

// Trajectory holds defaults for new render sessions.
type Trajectory struct {
	IterationsBase   int    `toml:"iterations_base"`
	IterationsScale  int    `toml:"iterations_scale"`
	IterationFormula string `toml:"iteration_formula"`
	SmoothingFrames  int    `toml:"smoothing_frames"`
}

// Encoder contains ffmpeg settings for assembling the frame sequence.
type Encoder struct {
	FFmpeg    string `toml:"ffmpeg"`
	Framerate int    `toml:"framerate"`
	Codec     string `toml:"codec"`
	Preset    string `toml:"preset"`
	CRF       int    `toml:"crf"`
	PixFmt    string `toml:"pix_fmt"`
}

// Server configures the optional status endpoint.
type Server struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for zoomrender.
//
// Configuration sections by subsystem:
//   - Paths: output root, log directory, history database
//   - Renderer: renderer program and MPI launcher settings
//   - Trajectory: defaults applied to new sessions
//   - Encoder: ffmpeg settings
//   - Server: status endpoint bind address
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Renderer   Renderer   `toml:"renderer"`
	Trajectory Trajectory `toml:"trajectory"`
	Encoder    Encoder    `toml:"encoder"`
	Server     Server     `toml:"server"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("zoomrender.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DiagnosticLimitBytes returns the stderr capture limit in bytes.
func (c *Config) DiagnosticLimitBytes() int {
	return c.Renderer.DiagnosticLimitKiB * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
