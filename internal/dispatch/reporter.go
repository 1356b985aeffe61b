package dispatch

import "time"

// FrameReport describes a frame that was rendered and persisted.
type FrameReport struct {
	Frame          int
	RenderedFrames int
	TotalFrames    int
	Attempts       int
	ZoomLevel      float64
	Iterations     int
	Elapsed        time.Duration
}

// Reporter receives user-visible progress.
type Reporter interface {
	FrameRendered(FrameReport)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(FrameReport)

func (f ReporterFunc) FrameRendered(r FrameReport) { f(r) }
