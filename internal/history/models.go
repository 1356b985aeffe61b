package history

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusFailed      RunStatus = "failed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// Run is one dispatcher execution over a session.
type Run struct {
	ID          string
	SessionID   string
	SessionPath string
	StartedAt   time.Time
	FinishedAt  time.Time
	StartFrame  int
	// EndFrame is the session's rendered frame count when the run ended.
	EndFrame    int
	TotalFrames int
	Status      RunStatus
	Error       string
}

// FramesRendered is the number of frames this run completed.
func (r Run) FramesRendered() int {
	if r.EndFrame < r.StartFrame {
		return 0
	}
	return r.EndFrame - r.StartFrame
}

// Duration is the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Attempt is one renderer invocation.
type Attempt struct {
	RunID      string
	Frame      int
	Attempt    int
	Success    bool
	Duration   time.Duration
	ExitCode   int
	Iterations int
	ZoomLevel  float64
	Diagnostic string
	Command    string
	RecordedAt time.Time
}

// Summary aggregates the attempts of every run of one session.
type Summary struct {
	SessionID      string
	Runs           int
	Attempts       int
	Failures       int
	FramesRendered int
	TotalRender    time.Duration
	MeanFrame      time.Duration
	SlowestFrame   int
	SlowestElapsed time.Duration
}
