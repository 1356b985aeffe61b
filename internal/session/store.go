package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/fileutil"
	"zoomrender/internal/services"
	"zoomrender/internal/trajectory"
)

// decimalText holds the literal digits of a decimal. It accepts both a JSON
// string and a bare JSON number so no digit is lost to float parsing.
type decimalText string

func (d *decimalText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return errors.New("decimal must not be null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = decimalText(s)
		return nil
	}
	*d = decimalText(data)
	return nil
}

type fileVec struct {
	X *decimalText `json:"x"`
	Y *decimalText `json:"y"`
}

type fileSession struct {
	Version               *int         `json:"version"`
	ID                    string       `json:"id"`
	CreatedAt             time.Time    `json:"created_at"`
	TotalFrames           *int         `json:"total_frames"`
	RenderedFrames        *int         `json:"rendered_frames"`
	ZoomStart             *decimalText `json:"zoom_start"`
	ZoomEnd               *decimalText `json:"zoom_end"`
	CameraStart           *fileVec     `json:"camera_start"`
	CameraEnd             *fileVec     `json:"camera_end"`
	IterationsBase        *int         `json:"iterations_base"`
	IterationsScale       *int         `json:"iterations_scale"`
	IterationFormula      string       `json:"iteration_formula"`
	SmoothingFrames       *int         `json:"smoothing_frames"`
	ExtraProgramArguments []string     `json:"extra_program_arguments"`
}

// legacySession is the flat format of the original session.json.
type legacySession struct {
	Z0               *decimalText `json:"z0"`
	Z1               *decimalText `json:"z1"`
	CX0              *decimalText `json:"cx0"`
	CY0              *decimalText `json:"cy0"`
	CX1              *decimalText `json:"cx1"`
	CY1              *decimalText `json:"cy1"`
	Frames           *int         `json:"frames"`
	RenderedFrames   *int         `json:"rendered_frames"`
	FramesSmooth     *int         `json:"frames_smooth"`
	IterationsBase   *int         `json:"iterations_base"`
	IterationsScale  *int         `json:"iterations_scale"`
	ProgramArguments []string     `json:"program_arguments"`
}

func text(d *apd.Decimal) *decimalText {
	t := decimalText(decimalx.Format(d))
	return &t
}

func intPtr(v int) *int { return &v }

// Save writes the session to path atomically.
func (s *Session) Save(path string) error {
	if err := s.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "session", "save", "refusing to persist invalid session", err)
	}
	extra := s.ExtraProgramArguments
	if extra == nil {
		extra = []string{}
	}
	payload := fileSession{
		Version:               intPtr(CurrentVersion),
		ID:                    s.ID,
		CreatedAt:             s.CreatedAt.UTC(),
		TotalFrames:           intPtr(s.TotalFrames),
		RenderedFrames:        intPtr(s.RenderedFrames),
		ZoomStart:             text(s.ZoomStart),
		ZoomEnd:               text(s.ZoomEnd),
		CameraStart:           &fileVec{X: text(s.CameraStart.X), Y: text(s.CameraStart.Y)},
		CameraEnd:             &fileVec{X: text(s.CameraEnd.X), Y: text(s.CameraEnd.Y)},
		IterationsBase:        intPtr(s.IterationsBase),
		IterationsScale:       intPtr(s.IterationsScale),
		IterationFormula:      string(s.IterationFormula),
		SmoothingFrames:       intPtr(s.SmoothingFrames),
		ExtraProgramArguments: extra,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save session %s: %w", path, err)
	}
	return nil
}

// Load reads a session file in the current or the legacy format.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "session", "load", path, err)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, corrupt(path, "", fmt.Errorf("decode json: %w", err))
	}
	if _, ok := keys["version"]; !ok {
		if _, legacy := keys["z0"]; legacy {
			return loadLegacy(path, data)
		}
		return nil, missing(path, "version")
	}

	var raw fileSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, corrupt(path, jsonField(err), err)
	}
	if raw.Version == nil {
		return nil, missing(path, "version")
	}
	if *raw.Version != CurrentVersion {
		return nil, corrupt(path, "version", fmt.Errorf("unsupported version %d", *raw.Version))
	}

	d := decoder{path: path}
	s := &Session{
		Version:        CurrentVersion,
		ID:             raw.ID,
		CreatedAt:      raw.CreatedAt,
		RenderedFrames: d.int("rendered_frames", raw.RenderedFrames),
		Params: trajectory.Params{
			ZoomStart:       d.decimal("zoom_start", raw.ZoomStart),
			ZoomEnd:         d.decimal("zoom_end", raw.ZoomEnd),
			CameraStart:     d.vec("camera_start", raw.CameraStart),
			CameraEnd:       d.vec("camera_end", raw.CameraEnd),
			IterationsBase:  d.int("iterations_base", raw.IterationsBase),
			IterationsScale: d.int("iterations_scale", raw.IterationsScale),
			SmoothingFrames: d.int("smoothing_frames", raw.SmoothingFrames),
		},
		ExtraProgramArguments: raw.ExtraProgramArguments,
	}
	s.TotalFrames = d.int("total_frames", raw.TotalFrames)
	if d.err != nil {
		return nil, d.err
	}
	formula, err := trajectory.ParseIterationFormula(raw.IterationFormula)
	if err != nil {
		return nil, corrupt(path, "iteration_formula", err)
	}
	s.IterationFormula = formula
	if strings.TrimSpace(s.ID) == "" {
		return nil, missing(path, "id")
	}
	return finish(path, s)
}

func loadLegacy(path string, data []byte) (*Session, error) {
	var raw legacySession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, corrupt(path, jsonField(err), err)
	}
	d := decoder{path: path}
	s := &Session{
		Version:        CurrentVersion,
		ID:             legacyID(path),
		RenderedFrames: d.int("rendered_frames", raw.RenderedFrames),
		Params: trajectory.Params{
			ZoomStart:        d.decimal("z0", raw.Z0),
			ZoomEnd:          d.decimal("z1", raw.Z1),
			CameraStart:      trajectory.Vec2{X: d.decimal("cx0", raw.CX0), Y: d.decimal("cy0", raw.CY0)},
			CameraEnd:        trajectory.Vec2{X: d.decimal("cx1", raw.CX1), Y: d.decimal("cy1", raw.CY1)},
			IterationsBase:   d.int("iterations_base", raw.IterationsBase),
			IterationsScale:  d.int("iterations_scale", raw.IterationsScale),
			SmoothingFrames:  d.int("frames_smooth", raw.FramesSmooth),
			IterationFormula: trajectory.FormulaLog2Plus1,
		},
		ExtraProgramArguments: raw.ProgramArguments,
	}
	s.TotalFrames = d.int("frames", raw.Frames)
	if d.err != nil {
		return nil, d.err
	}
	if info, err := os.Stat(path); err == nil {
		s.CreatedAt = info.ModTime().UTC()
	}
	return finish(path, s)
}

func finish(path string, s *Session) (*Session, error) {
	if s.ExtraProgramArguments == nil {
		s.ExtraProgramArguments = []string{}
	}
	if err := s.Params.Validate(); err != nil {
		return nil, corrupt(path, "", err)
	}
	if s.RenderedFrames < 0 || s.RenderedFrames > s.TotalFrames {
		return nil, corrupt(path, "rendered_frames", fmt.Errorf("value %d outside [0, %d]", s.RenderedFrames, s.TotalFrames))
	}
	return s, nil
}

// legacyID derives a stable identifier for sessions that predate IDs, so
// repeated resumes of the same file correlate in run history.
func legacyID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

// decoder collects the first field error while converting wire values.
type decoder struct {
	path string
	err  error
}

func (d *decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = corrupt(d.path, field, err)
	}
}

func (d *decoder) int(field string, v *int) int {
	if v == nil {
		if d.err == nil {
			d.err = missing(d.path, field)
		}
		return 0
	}
	return *v
}

func (d *decoder) decimal(field string, v *decimalText) *apd.Decimal {
	if v == nil {
		if d.err == nil {
			d.err = missing(d.path, field)
		}
		return nil
	}
	out, err := decimalx.Parse(string(*v))
	if err != nil {
		d.fail(field, err)
		return nil
	}
	return out
}

func (d *decoder) vec(field string, v *fileVec) trajectory.Vec2 {
	if v == nil {
		if d.err == nil {
			d.err = missing(d.path, field)
		}
		return trajectory.Vec2{}
	}
	return trajectory.Vec2{
		X: d.decimal(field+".x", v.X),
		Y: d.decimal(field+".y", v.Y),
	}
}

// jsonField extracts the offending key from a json type error.
func jsonField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}
