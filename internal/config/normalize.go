package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"zoomrender/internal/trajectory"
)

// loadDotEnv reads ./.env when present. Variables already set in the
// environment win.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRenderer()
	c.normalizeTrajectory()
	c.normalizeEncoder()
	c.normalizeLogging()
	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeRenderer() {
	if value, ok := os.LookupEnv("ZOOMRENDER_PROGRAM"); ok && strings.TrimSpace(value) != "" {
		c.Renderer.Program = value
	}
	if value, ok := os.LookupEnv("ZOOMRENDER_HOSTFILE"); ok && strings.TrimSpace(value) != "" {
		c.Renderer.HostFile = value
	}
	if value, ok := os.LookupEnv("ZOOMRENDER_NET_INTERFACE"); ok && strings.TrimSpace(value) != "" {
		c.Renderer.NetInterface = value
	}
	c.Renderer.Program = strings.TrimSpace(c.Renderer.Program)
	c.Renderer.Launcher = strings.TrimSpace(c.Renderer.Launcher)
	c.Renderer.HostFile = strings.TrimSpace(c.Renderer.HostFile)
	c.Renderer.NetInterface = strings.TrimSpace(c.Renderer.NetInterface)
	if c.Renderer.RetryLimit <= 0 {
		c.Renderer.RetryLimit = defaultRetryLimit
	}
	if c.Renderer.DiagnosticLimitKiB <= 0 {
		c.Renderer.DiagnosticLimitKiB = defaultDiagnosticLimitKiB
	}
}

func (c *Config) normalizeTrajectory() {
	c.Trajectory.IterationFormula = strings.ToLower(strings.TrimSpace(c.Trajectory.IterationFormula))
	if c.Trajectory.IterationFormula == "" {
		c.Trajectory.IterationFormula = defaultIterationFormula
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpeg = strings.TrimSpace(c.Encoder.FFmpeg)
	if c.Encoder.FFmpeg == "" {
		c.Encoder.FFmpeg = defaultFFmpeg
	}
	if c.Encoder.Framerate <= 0 {
		c.Encoder.Framerate = defaultFramerate
	}
	if strings.TrimSpace(c.Encoder.Codec) == "" {
		c.Encoder.Codec = defaultCodec
	}
	if strings.TrimSpace(c.Encoder.Preset) == "" {
		c.Encoder.Preset = defaultPreset
	}
	if strings.TrimSpace(c.Encoder.PixFmt) == "" {
		c.Encoder.PixFmt = defaultPixFmt
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("ZOOMRENDER_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// IterationFormula returns the configured formula in trajectory form.
func (c *Config) IterationFormula() trajectory.IterationFormula {
	formula, err := trajectory.ParseIterationFormula(c.Trajectory.IterationFormula)
	if err != nil {
		return trajectory.FormulaLog2
	}
	return formula
}
