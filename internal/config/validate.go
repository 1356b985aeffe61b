package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"zoomrender/internal/trajectory"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateTrajectory(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRenderer() error {
	if c.Renderer.Program == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("renderer.program is required. Set ZOOMRENDER_PROGRAM env var or edit %s (create with 'zoomrender config init')", defaultPath)
	}
	if c.Renderer.Launcher != "" && c.Renderer.Processes <= 0 {
		return errors.New("renderer.np must be positive when a launcher is configured")
	}
	if c.Renderer.RetryLimit < 1 {
		return errors.New("renderer.retry_limit must be at least 1")
	}
	return nil
}

func (c *Config) validateTrajectory() error {
	if c.Trajectory.IterationsBase < 0 {
		return errors.New("trajectory.iterations_base must not be negative")
	}
	if c.Trajectory.SmoothingFrames < 0 {
		return errors.New("trajectory.smoothing_frames must not be negative")
	}
	if _, err := trajectory.ParseIterationFormula(c.Trajectory.IterationFormula); err != nil {
		return fmt.Errorf("trajectory.iteration_formula: %w", err)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
