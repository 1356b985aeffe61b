// Package encoder assembles a rendered frame sequence into a video with ffmpeg.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"zoomrender/internal/procexec"
	"zoomrender/internal/renderer"
	"zoomrender/internal/services"
)

// Settings mirrors the [encoder] config section.
type Settings struct {
	FFmpeg    string
	Framerate int
	Codec     string
	Preset    string
	CRF       int
	PixFmt    string
}

// Job is one encode.
type Job struct {
	FramesDir  string
	OutputPath string
	// TotalFrames, when positive, lets Progress report a fraction.
	TotalFrames int
}

// Option configures the encoder.
type Option func(*Encoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec procexec.Executor) Option {
	return func(e *Encoder) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithProgress receives the number of frames ffmpeg has encoded so far.
func WithProgress(fn func(encoded int)) Option {
	return func(e *Encoder) {
		e.progress = fn
	}
}

// Encoder runs ffmpeg.
type Encoder struct {
	settings Settings
	exec     procexec.Executor
	progress func(int)
}

// New constructs an Encoder.
func New(settings Settings, opts ...Option) (*Encoder, error) {
	if strings.TrimSpace(settings.FFmpeg) == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	if settings.Framerate <= 0 {
		return nil, fmt.Errorf("framerate must be positive, got %d", settings.Framerate)
	}
	enc := &Encoder{settings: settings, exec: procexec.CommandExecutor{}}
	for _, opt := range opts {
		opt(enc)
	}
	return enc, nil
}

// Args returns the ffmpeg arguments for job, excluding the binary.
func (e *Encoder) Args(job Job) []string {
	s := e.settings
	args := []string{
		"-framerate", strconv.Itoa(s.Framerate),
		"-i", filepath.Join(job.FramesDir, renderer.FramePattern),
	}
	if s.Codec != "" {
		args = append(args, "-c:v", s.Codec)
	}
	if s.Preset != "" {
		args = append(args, "-preset", s.Preset)
	}
	args = append(args, "-crf", strconv.Itoa(s.CRF))
	if s.PixFmt != "" {
		args = append(args, "-pix_fmt", s.PixFmt)
	}
	args = append(args, "-progress", "pipe:1", "-nostats", job.OutputPath, "-y")
	return args
}

// Command returns the full argv for job.
func (e *Encoder) Command(job Job) []string {
	return append([]string{e.settings.FFmpeg}, e.Args(job)...)
}

// Encode runs ffmpeg for job. The first frame must exist because ffmpeg's
// image2 demuxer starts its sequence at index 0.
func (e *Encoder) Encode(ctx context.Context, job Job) error {
	first := filepath.Join(job.FramesDir, renderer.FrameFileName(0))
	if _, err := os.Stat(first); err != nil {
		return services.Wrap(services.ErrNotFound, "encoder", "locate frames", fmt.Sprintf("first frame %s missing", first), err)
	}
	if dir := filepath.Dir(job.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	result, err := e.exec.Run(ctx, e.settings.FFmpeg, e.Args(job), e.onStdout)
	if err != nil {
		detail := strings.TrimSpace(result.Diagnostic)
		if detail == "" {
			detail = "ffmpeg failed"
		}
		return services.Wrap(services.ErrExternalTool, "encoder", "run ffmpeg", lastLine(detail), err)
	}
	return nil
}

func (e *Encoder) onStdout(line string) {
	if e.progress == nil {
		return
	}
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || key != "frame" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		e.progress(n)
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
