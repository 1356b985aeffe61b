package renderer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/procexec"
	"zoomrender/internal/trajectory"
)

// Launcher describes the MPI wrapper. An empty Command runs the program directly.
type Launcher struct {
	Command      string
	HostFile     string
	NetInterface string
	Processes    int
}

// Config configures an Invoker.
type Config struct {
	Program  string
	Launcher Launcher
}

// Request is one frame to render.
type Request struct {
	Point      trajectory.Point
	OutputPath string
	Extra      []string
}

// Outcome reports a single renderer attempt.
type Outcome struct {
	Command    []string
	Success    bool
	ExitCode   int
	Diagnostic string
	Elapsed    time.Duration
	// Err is nil exactly when Success is true.
	Err error
}

// Option configures the invoker.
type Option func(*Invoker)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec procexec.Executor) Option {
	return func(i *Invoker) {
		if exec != nil {
			i.exec = exec
		}
	}
}

// WithStdout forwards renderer stdout lines to fn.
func WithStdout(fn func(string)) Option {
	return func(i *Invoker) {
		i.onStdout = fn
	}
}

// WithClock replaces time.Now for elapsed measurements.
func WithClock(now func() time.Time) Option {
	return func(i *Invoker) {
		if now != nil {
			i.now = now
		}
	}
}

// Invoker runs the renderer.
type Invoker struct {
	cfg      Config
	exec     procexec.Executor
	onStdout func(string)
	now      func() time.Time
}

// New constructs an Invoker.
func New(cfg Config, opts ...Option) (*Invoker, error) {
	cfg.Program = strings.TrimSpace(cfg.Program)
	if cfg.Program == "" {
		return nil, errors.New("renderer program required")
	}
	cfg.Launcher.Command = strings.TrimSpace(cfg.Launcher.Command)
	if cfg.Launcher.Command != "" && cfg.Launcher.Processes <= 0 {
		return nil, fmt.Errorf("launcher %s requires a positive process count", cfg.Launcher.Command)
	}
	inv := &Invoker{
		cfg:  cfg,
		exec: procexec.CommandExecutor{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Command returns the full argv for req, launcher first.
func (i *Invoker) Command(req Request) []string {
	argv := make([]string, 0, 16+len(req.Extra))
	if l := i.cfg.Launcher; l.Command != "" {
		argv = append(argv, l.Command)
		if l.HostFile != "" {
			argv = append(argv, "-hostfile", l.HostFile)
		}
		if l.NetInterface != "" {
			argv = append(argv, "--mca", "btl_tcp_if_include", l.NetInterface)
		}
		argv = append(argv, "-np", strconv.Itoa(l.Processes))
	}
	argv = append(argv,
		i.cfg.Program,
		"--zoom", decimalx.Format(req.Point.Zoom),
		"-cx", decimalx.Format(req.Point.X),
		"-cy", decimalx.Format(req.Point.Y),
		"--iterations", strconv.Itoa(req.Point.Iterations),
		"-od", req.OutputPath,
	)
	return append(argv, req.Extra...)
}

// Invoke runs the renderer once for req.
func (i *Invoker) Invoke(ctx context.Context, req Request) Outcome {
	argv := i.Command(req)
	started := i.now()
	result, err := i.exec.Run(ctx, argv[0], argv[1:], i.onStdout)
	outcome := Outcome{
		Command:    argv,
		ExitCode:   result.ExitCode,
		Diagnostic: strings.TrimSpace(result.Diagnostic),
		Elapsed:    i.now().Sub(started),
	}
	if err != nil {
		outcome.Err = fmt.Errorf("render %s: %w", filepath.Base(req.OutputPath), err)
		return outcome
	}
	outcome.Success = true
	return outcome
}

// FrameFileName is the image name for a frame index.
func FrameFileName(frame int) string {
	return "frame_" + strconv.Itoa(frame) + ".png"
}

// FramePattern is the printf-style pattern matching FrameFileName, for ffmpeg.
const FramePattern = "frame_%d.png"
