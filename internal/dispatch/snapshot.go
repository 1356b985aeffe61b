package dispatch

import (
	"sync"
	"time"
)

// State is the dispatcher lifecycle state.
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
)

// Snapshot is a point-in-time copy of dispatcher progress, safe to share
// across goroutines.
type Snapshot struct {
	SessionID      string    `json:"session_id"`
	RunID          string    `json:"run_id,omitempty"`
	State          State     `json:"state"`
	RenderedFrames int       `json:"rendered_frames"`
	TotalFrames    int       `json:"total_frames"`
	Percent        float64   `json:"percent"`
	CurrentFrame   int       `json:"current_frame"`
	CurrentAttempt int       `json:"current_attempt"`
	ZoomLevel      float64   `json:"zoom_level"`
	LastFrameTime  float64   `json:"last_frame_seconds"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
	LastError      string    `json:"last_error,omitempty"`
}

type tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func (t *tracker) get() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

func (t *tracker) update(fn func(*Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.snap)
	if t.snap.TotalFrames > 0 {
		t.snap.Percent = float64(t.snap.RenderedFrames) / float64(t.snap.TotalFrames) * 100
	}
	if t.snap.RenderedFrames >= t.snap.TotalFrames {
		t.snap.State = StateComplete
		t.snap.CurrentFrame = -1
		t.snap.CurrentAttempt = 0
	} else {
		t.snap.State = StateRunning
	}
}
