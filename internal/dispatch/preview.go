package dispatch

import (
	"path/filepath"

	"zoomrender/internal/renderer"
	"zoomrender/internal/session"
	"zoomrender/internal/trajectory"
)

// Commander builds renderer argv without running it.
type Commander interface {
	Command(renderer.Request) []string
}

// PlannedFrame is one frame of a dry run.
type PlannedFrame struct {
	Frame   int
	Point   trajectory.Point
	Command []string
}

// Preview computes frames [from, to) of s and, when cmd is non-nil, the argv
// each would run. Nothing is invoked.
func Preview(s *session.Session, framesDir string, cmd Commander, from, to int) ([]PlannedFrame, error) {
	points, err := trajectory.Sample(s.Params, from, to)
	if err != nil {
		return nil, err
	}
	if from < 0 {
		from = 0
	}
	out := make([]PlannedFrame, 0, len(points))
	for i, point := range points {
		frame := from + i
		planned := PlannedFrame{Frame: frame, Point: point}
		if cmd != nil {
			planned.Command = cmd.Command(renderer.Request{
				Point:      point,
				OutputPath: filepath.Join(framesDir, renderer.FrameFileName(frame)),
				Extra:      s.ExtraProgramArguments,
			})
		}
		out = append(out, planned)
	}
	return out, nil
}

// Preview plans frames [from, to) with the dispatcher's renderer.
func (d *Dispatcher) Preview(from, to int) ([]PlannedFrame, error) {
	cmd, _ := d.invoker.(Commander)
	return Preview(d.session, d.framesDir, cmd, from, to)
}
