package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"zoomrender/internal/services"
	"zoomrender/internal/trajectory"
)

const (
	// FileName is the session file inside a render directory.
	FileName = "session.json"
	// CurrentVersion is the file format written by Save.
	CurrentVersion = 1
)

// Session is the persisted state of one render.
type Session struct {
	trajectory.Params

	Version   int
	ID        string
	CreatedAt time.Time
	// RenderedFrames counts frames completed and durably logged. The next
	// frame to render has this index.
	RenderedFrames int
	// ExtraProgramArguments are appended verbatim to every renderer call.
	ExtraProgramArguments []string
}

// Options is the input to Create.
type Options struct {
	Params                trajectory.Params
	ExtraProgramArguments []string
	// StartFrame marks frames before it as already rendered.
	StartFrame int
}

// Create validates opts and returns a fresh session.
func Create(opts Options) (*Session, error) {
	s := &Session{
		Params:                opts.Params.Clone(),
		Version:               CurrentVersion,
		ID:                    uuid.NewString(),
		CreatedAt:             time.Now().UTC(),
		RenderedFrames:        opts.StartFrame,
		ExtraProgramArguments: slices.Clone(opts.ExtraProgramArguments),
	}
	if s.IterationFormula == "" {
		s.IterationFormula = trajectory.FormulaLog2
	}
	if err := s.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "session", "create", "invalid parameters", err)
	}
	return s, nil
}

// Validate checks the trajectory parameters and the frame counter.
func (s *Session) Validate() error {
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if s.RenderedFrames < 0 || s.RenderedFrames > s.TotalFrames {
		return fmt.Errorf("%w: rendered frames %d outside [0, %d]", trajectory.ErrInvalidParams, s.RenderedFrames, s.TotalFrames)
	}
	return nil
}

// Complete reports whether every frame has been rendered.
func (s *Session) Complete() bool {
	return s.RenderedFrames >= s.TotalFrames
}

// Remaining returns the number of frames still to render.
func (s *Session) Remaining() int {
	if s.Complete() {
		return 0
	}
	return s.TotalFrames - s.RenderedFrames
}

// NextFrame is the index the dispatcher renders next.
func (s *Session) NextFrame() int {
	return s.RenderedFrames
}

// Advance records one more completed frame.
func (s *Session) Advance() error {
	if s.Complete() {
		return ErrComplete
	}
	s.RenderedFrames++
	return nil
}

// Progress returns the completed fraction in [0, 1].
func (s *Session) Progress() float64 {
	if s.TotalFrames <= 0 {
		return 0
	}
	return float64(s.RenderedFrames) / float64(s.TotalFrames)
}
