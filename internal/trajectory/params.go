package trajectory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"zoomrender/internal/decimalx"
)

// ErrInvalidParams marks trajectory parameters that cannot produce a path.
var ErrInvalidParams = errors.New("invalid trajectory parameters")

// IterationFormula selects how the iteration count grows with zoom.
type IterationFormula string

const (
	// FormulaLog2 computes base + floor(log2(zoom) * scale).
	FormulaLog2 IterationFormula = "log2"
	// FormulaLog2Plus1 computes base + floor(log2(1 + zoom) * scale).
	FormulaLog2Plus1 IterationFormula = "log2p1"
)

// ParseIterationFormula normalizes a formula name. Empty selects FormulaLog2.
func ParseIterationFormula(value string) (IterationFormula, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormulaLog2):
		return FormulaLog2, nil
	case string(FormulaLog2Plus1), "log2(1+zoom)":
		return FormulaLog2Plus1, nil
	default:
		return "", fmt.Errorf("%w: unknown iteration formula %q", ErrInvalidParams, value)
	}
}

// Vec2 is a world-space camera position.
type Vec2 struct {
	X *apd.Decimal
	Y *apd.Decimal
}

// Params holds the immutable description of a camera path.
type Params struct {
	TotalFrames      int
	SmoothingFrames  int
	ZoomStart        *apd.Decimal
	ZoomEnd          *apd.Decimal
	CameraStart      Vec2
	CameraEnd        Vec2
	IterationsBase   int
	IterationsScale  int
	IterationFormula IterationFormula
}

// Validate reports the first parameter that would make ComputeFrame fail.
func (p Params) Validate() error {
	if p.TotalFrames < 2 {
		return fmt.Errorf("%w: total frames must be at least 2, got %d", ErrInvalidParams, p.TotalFrames)
	}
	if p.SmoothingFrames < 0 {
		return fmt.Errorf("%w: smoothing frames must not be negative, got %d", ErrInvalidParams, p.SmoothingFrames)
	}
	if p.IterationsBase < 0 {
		return fmt.Errorf("%w: iterations base must not be negative, got %d", ErrInvalidParams, p.IterationsBase)
	}
	if p.ZoomStart == nil || p.ZoomStart.Sign() <= 0 {
		return fmt.Errorf("%w: zoom start must be positive, got %s", ErrInvalidParams, decimalx.Format(p.ZoomStart))
	}
	if p.ZoomEnd == nil || p.ZoomEnd.Sign() <= 0 {
		return fmt.Errorf("%w: zoom end must be positive, got %s", ErrInvalidParams, decimalx.Format(p.ZoomEnd))
	}
	coords := []struct {
		name  string
		value *apd.Decimal
	}{
		{"camera start x", p.CameraStart.X},
		{"camera start y", p.CameraStart.Y},
		{"camera end x", p.CameraEnd.X},
		{"camera end y", p.CameraEnd.Y},
	}
	for _, coord := range coords {
		if coord.value == nil {
			return fmt.Errorf("%w: %s is required", ErrInvalidParams, coord.name)
		}
	}
	if _, err := ParseIterationFormula(string(p.IterationFormula)); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy so callers can hand out Params without sharing decimals.
func (p Params) Clone() Params {
	out := p
	out.ZoomStart = decimalx.Clone(p.ZoomStart)
	out.ZoomEnd = decimalx.Clone(p.ZoomEnd)
	out.CameraStart = Vec2{X: decimalx.Clone(p.CameraStart.X), Y: decimalx.Clone(p.CameraStart.Y)}
	out.CameraEnd = Vec2{X: decimalx.Clone(p.CameraEnd.X), Y: decimalx.Clone(p.CameraEnd.Y)}
	return out
}
