package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultDiagnosticLimit bounds captured stderr.
const DefaultDiagnosticLimit = 64 * 1024

// DefaultWaitDelay is how long a child gets after SIGTERM before it is killed.
const DefaultWaitDelay = 10 * time.Second

// Result describes one finished process.
type Result struct {
	// ExitCode is the process exit status, or -1 when it never started or
	// was terminated by a signal.
	ExitCode int
	// Diagnostic is the tail of stderr.
	Diagnostic string
	Elapsed    time.Duration
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) (Result, error)
}

// CommandExecutor runs programs with os/exec.
type CommandExecutor struct {
	DiagnosticLimit int
	WaitDelay       time.Duration
}

// Run starts binary and waits for it. A nonzero exit is returned as an error
// wrapping *exec.ExitError alongside a populated Result.
func (e CommandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) (Result, error) {
	limit := e.DiagnosticLimit
	if limit <= 0 {
		limit = DefaultDiagnosticLimit
	}
	waitDelay := e.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}

	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = waitDelay

	stderr := newTailBuffer(limit)
	cmd.Stderr = stderr
	stdout := &lineWriter{onLine: onStdout}
	cmd.Stdout = stdout

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1, Diagnostic: err.Error()}, fmt.Errorf("start command: %w", err)
	}

	waitErr := cmd.Wait()
	stdout.Flush()
	result := Result{
		ExitCode:   exitCode(cmd.ProcessState),
		Diagnostic: stderr.String(),
		Elapsed:    time.Since(started),
	}
	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("wait command: %w", errors.Join(ctxErr, waitErr))
		}
		return result, fmt.Errorf("wait command: %w", waitErr)
	}
	return result, nil
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.truncated {
		return "..." + string(t.buf)
	}
	return string(t.buf)
}

// lineWriter splits output into lines for a callback. Lines longer than
// maxLine are delivered in pieces.
type lineWriter struct {
	mu     sync.Mutex
	onLine func(string)
	buf    []byte
}

const maxLine = 1024 * 1024

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.onLine == nil {
		return len(p), nil
	}
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.onLine(string(bytes.TrimRight(w.buf[:i], "\r")))
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) > maxLine {
		w.onLine(string(w.buf))
		w.buf = nil
	}
	return len(p), nil
}

// Flush delivers a trailing partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.onLine != nil && len(w.buf) > 0 {
		w.onLine(string(w.buf))
	}
	w.buf = nil
}
