package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/history"
	"zoomrender/internal/logging"
	"zoomrender/internal/metrics"
	"zoomrender/internal/progresslog"
	"zoomrender/internal/renderer"
	"zoomrender/internal/services"
	"zoomrender/internal/session"
	"zoomrender/internal/trajectory"
)

// DefaultRetryLimit is the number of attempts per frame when unset.
const DefaultRetryLimit = 5

// Invoker runs the renderer once.
type Invoker interface {
	Invoke(ctx context.Context, req renderer.Request) renderer.Outcome
}

// ProgressLog receives one entry per completed frame.
type ProgressLog interface {
	Append(progresslog.Entry) error
}

// Recorder persists run history.
type Recorder interface {
	StartRun(ctx context.Context, run history.Run) error
	FinishRun(ctx context.Context, runID string, status history.RunStatus, endFrame int, finishedAt time.Time, errMsg string) error
	RecordAttempt(ctx context.Context, attempt history.Attempt) error
}

// Options configures a Dispatcher.
type Options struct {
	Session     *session.Session
	SessionPath string
	FramesDir   string
	Invoker     Invoker
	Log         ProgressLog
	// Recorder and Metrics are optional.
	Recorder   Recorder
	Metrics    *metrics.Metrics
	RetryLimit int
	Logger     *slog.Logger
	Reporter   Reporter
	Clock      func() time.Time
}

// Dispatcher renders the remaining frames of one session sequentially.
type Dispatcher struct {
	session     *session.Session
	sessionPath string
	framesDir   string
	invoker     Invoker
	log         ProgressLog
	recorder    Recorder
	metrics     *metrics.Metrics
	retryLimit  int
	logger      *slog.Logger
	reporter    Reporter
	now         func() time.Time

	status tracker
}

// New validates opts and returns a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Session == nil {
		return nil, errors.New("session is required")
	}
	if strings.TrimSpace(opts.SessionPath) == "" {
		return nil, errors.New("session path is required")
	}
	if opts.Invoker == nil {
		return nil, errors.New("renderer invoker is required")
	}
	if opts.Log == nil {
		return nil, errors.New("progress log is required")
	}
	if opts.RetryLimit < 0 {
		return nil, fmt.Errorf("retry limit must not be negative, got %d", opts.RetryLimit)
	}
	if opts.RetryLimit == 0 {
		opts.RetryLimit = DefaultRetryLimit
	}
	if opts.FramesDir == "" {
		opts.FramesDir = filepath.Dir(opts.SessionPath)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	d := &Dispatcher{
		session:     opts.Session,
		sessionPath: opts.SessionPath,
		framesDir:   opts.FramesDir,
		invoker:     opts.Invoker,
		log:         opts.Log,
		recorder:    opts.Recorder,
		metrics:     opts.Metrics,
		retryLimit:  opts.RetryLimit,
		logger:      logging.NewComponentLogger(opts.Logger, "dispatch"),
		reporter:    opts.Reporter,
		now:         opts.Clock,
	}
	d.status.update(func(s *Snapshot) {
		s.SessionID = opts.Session.ID
		s.RenderedFrames = opts.Session.RenderedFrames
		s.TotalFrames = opts.Session.TotalFrames
		s.CurrentFrame = opts.Session.RenderedFrames
	})
	return d, nil
}

// State reports whether frames remain.
func (d *Dispatcher) State() State {
	return d.status.get().State
}

// Snapshot returns the current progress. Safe for concurrent use.
func (d *Dispatcher) Snapshot() Snapshot {
	return d.status.get()
}

// Run renders frames until the session is complete, a frame exhausts its
// retries, persistence fails, or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = services.WithSessionID(ctx, d.session.ID)
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)

	startFrame := d.session.RenderedFrames
	started := d.now()
	d.status.update(func(s *Snapshot) {
		s.RunID = runID
		s.StartedAt = started
		s.UpdatedAt = started
		s.LastError = ""
	})
	d.metrics.SetProgress(d.session.RenderedFrames, d.session.TotalFrames)

	if d.session.Complete() {
		logger.Info("session already complete",
			logging.String(logging.FieldEventType, "render_complete"),
			logging.Int("total_frames", d.session.TotalFrames),
		)
		return nil
	}

	if d.recorder != nil {
		if err := d.recorder.StartRun(ctx, history.Run{
			ID:          runID,
			SessionID:   d.session.ID,
			SessionPath: d.sessionPath,
			StartedAt:   started,
			StartFrame:  startFrame,
			EndFrame:    startFrame,
			TotalFrames: d.session.TotalFrames,
			Status:      history.RunStatusRunning,
		}); err != nil {
			logging.WarnWithContext(logger, "history run not recorded", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the history database path and permissions"),
				logging.String(logging.FieldImpact, "this run will be missing from the history command"),
			)
			d.recorder = nil
		}
	}

	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.Int("start_frame", startFrame),
		logging.Int("total_frames", d.session.TotalFrames),
		logging.Int("retry_limit", d.retryLimit),
		logging.String("frames_dir", d.framesDir),
	)

	var runErr error
	for !d.session.Complete() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := d.renderFrame(ctx, runID); err != nil {
			runErr = err
			break
		}
	}

	d.finishRun(ctx, logger, runID, startFrame, started, runErr)
	return runErr
}

func (d *Dispatcher) renderFrame(ctx context.Context, runID string) error {
	frame := d.session.NextFrame()
	frameCtx := services.WithFrame(ctx, frame)
	logger := logging.WithContext(frameCtx, d.logger)

	point, err := trajectory.PointAt(d.session.Params, frame)
	if err != nil {
		return services.Wrap(services.ErrValidation, "dispatch", "compute frame", fmt.Sprintf("frame %d", frame), err)
	}
	req := renderer.Request{
		Point:      point,
		OutputPath: filepath.Join(d.framesDir, renderer.FrameFileName(frame)),
		Extra:      d.session.ExtraProgramArguments,
	}
	zoomLevel := decimalx.Float64(point.ZoomLevel)

	outcome, attempts, err := d.attemptFrame(frameCtx, logger, runID, frame, zoomLevel, point, req)
	if err != nil {
		return err
	}

	entry := progresslog.Entry{
		Frame:     frame,
		ZoomLevel: zoomLevel,
		Elapsed:   outcome.Elapsed,
		Command:   progresslog.EscapeCommand(outcome.Command),
	}
	if err := d.log.Append(entry); err != nil {
		return services.Wrap(services.ErrTransient, "dispatch", "append progress log", fmt.Sprintf("frame %d", frame), err)
	}
	if err := d.session.Advance(); err != nil {
		return services.Wrap(services.ErrValidation, "dispatch", "advance session", fmt.Sprintf("frame %d", frame), err)
	}
	if err := d.session.Save(d.sessionPath); err != nil {
		return services.Wrap(services.ErrTransient, "dispatch", "save session", d.sessionPath, err)
	}

	rendered := d.session.RenderedFrames
	total := d.session.TotalFrames
	d.metrics.FrameCompleted(outcome.Elapsed, zoomLevel)
	d.metrics.SetProgress(rendered, total)
	d.status.update(func(s *Snapshot) {
		s.RenderedFrames = rendered
		s.CurrentFrame = rendered
		s.CurrentAttempt = 0
		s.ZoomLevel = zoomLevel
		s.LastFrameTime = outcome.Elapsed.Seconds()
		s.UpdatedAt = d.now()
	})

	logger.Info("frame rendered",
		logging.String(logging.FieldEventType, "frame_rendered"),
		logging.Float64("progress_percent", float64(rendered)/float64(total)*100),
		logging.Float64("zoom_level", zoomLevel),
		logging.Int("iterations", point.Iterations),
		logging.Int("attempts", attempts),
		logging.Duration("frame_time", outcome.Elapsed),
	)
	if d.reporter != nil {
		d.reporter.FrameRendered(FrameReport{
			Frame:          frame,
			RenderedFrames: rendered,
			TotalFrames:    total,
			Attempts:       attempts,
			ZoomLevel:      zoomLevel,
			Iterations:     point.Iterations,
			Elapsed:        outcome.Elapsed,
		})
	}
	return nil
}

// attemptFrame invokes the renderer until it succeeds or the retry limit is
// reached. Every attempt uses the same request.
func (d *Dispatcher) attemptFrame(ctx context.Context, logger *slog.Logger, runID string, frame int, zoomLevel float64, point trajectory.Point, req renderer.Request) (renderer.Outcome, int, error) {
	var last renderer.Outcome
	for attempt := 1; attempt <= d.retryLimit; attempt++ {
		d.status.update(func(s *Snapshot) {
			s.CurrentFrame = frame
			s.CurrentAttempt = attempt
			s.UpdatedAt = d.now()
		})
		logger.Debug("invoking renderer",
			logging.Int("attempt", attempt),
			logging.String("command", strings.Join(d.commandFor(req), " ")),
		)

		outcome := d.invoker.Invoke(ctx, req)
		d.metrics.ObserveAttempt(outcome.Success, outcome.Elapsed)
		d.recordAttempt(ctx, logger, history.Attempt{
			RunID:      runID,
			Frame:      frame,
			Attempt:    attempt,
			Success:    outcome.Success,
			Duration:   outcome.Elapsed,
			ExitCode:   outcome.ExitCode,
			Iterations: point.Iterations,
			ZoomLevel:  zoomLevel,
			Diagnostic: outcome.Diagnostic,
			Command:    strings.Join(outcome.Command, " "),
			RecordedAt: d.now(),
		})
		if outcome.Success {
			return outcome, attempt, nil
		}
		last = outcome

		if err := ctx.Err(); err != nil {
			logger.Info("render interrupted",
				logging.String(logging.FieldEventType, "render_interrupted"),
				logging.Int("attempt", attempt),
			)
			return last, attempt, fmt.Errorf("frame %d interrupted: %w", frame, err)
		}

		logging.WarnWithContext(logger, "render attempt failed", "render_attempt_failed",
			logging.Int("attempt", attempt),
			logging.Int("retry_limit", d.retryLimit),
			logging.Int("exit_code", outcome.ExitCode),
			logging.String("diagnostic", outcome.Diagnostic),
			logging.String("command", strings.Join(outcome.Command, " ")),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "inspect the renderer diagnostic and cluster health"),
			logging.String(logging.FieldImpact, "frame will be retried with identical arguments"),
		)
		d.status.update(func(s *Snapshot) {
			s.LastError = errorText(outcome)
		})
	}

	d.metrics.IncRetryExhausted()
	return last, d.retryLimit, &RetryExhaustedError{
		Frame:          frame,
		Attempts:       d.retryLimit,
		Command:        last.Command,
		LastDiagnostic: last.Diagnostic,
		Err:            last.Err,
	}
}

func (d *Dispatcher) commandFor(req renderer.Request) []string {
	if cmd, ok := d.invoker.(Commander); ok {
		return cmd.Command(req)
	}
	return nil
}

func (d *Dispatcher) recordAttempt(ctx context.Context, logger *slog.Logger, attempt history.Attempt) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		logger.Debug("history attempt not recorded", logging.Error(err))
	}
}

func (d *Dispatcher) finishRun(ctx context.Context, logger *slog.Logger, runID string, startFrame int, started time.Time, runErr error) {
	finished := d.now()
	status := history.RunStatusCompleted
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = history.RunStatusInterrupted
	default:
		status = history.RunStatusFailed
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	d.status.update(func(s *Snapshot) {
		s.UpdatedAt = finished
		if runErr != nil {
			s.LastError = errMsg
		}
	})

	if d.recorder != nil {
		if err := d.recorder.FinishRun(context.WithoutCancel(ctx), runID, status, d.session.RenderedFrames, finished, errMsg); err != nil {
			logger.Debug("history run not finalized", logging.Error(err))
		}
	}

	attrs := []logging.Attr{
		logging.String("status", string(status)),
		logging.Int("frames_rendered", d.session.RenderedFrames-startFrame),
		logging.Int("rendered_frames", d.session.RenderedFrames),
		logging.Int("total_frames", d.session.TotalFrames),
		logging.Duration("elapsed", finished.Sub(started)),
	}
	switch status {
	case history.RunStatusCompleted:
		logger.Info("render complete", logging.Args(append(attrs, logging.String(logging.FieldEventType, "render_complete"))...)...)
	case history.RunStatusInterrupted:
		logger.Info("render stopped", logging.Args(append(attrs, logging.String(logging.FieldEventType, "render_interrupted"))...)...)
	default:
		logging.ErrorWithContext(logger, "render failed", "render_failed",
			append(attrs,
				logging.Error(runErr),
				logging.String("failure_kind", services.FailureKind(runErr)),
				logging.String(logging.FieldErrorHint, "fix the failure and run resume with the session file"),
			)...,
		)
	}
}

func errorText(o renderer.Outcome) string {
	if o.Diagnostic != "" {
		return lastLine(o.Diagnostic)
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return "renderer failed"
}
