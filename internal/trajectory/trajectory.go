package trajectory

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"zoomrender/internal/decimalx"
)

// Point is the camera state for one frame.
type Point struct {
	// T is the eased progress in [0, 1].
	T          *apd.Decimal
	Zoom       *apd.Decimal
	ZoomLevel  *apd.Decimal // log2(Zoom)
	X          *apd.Decimal
	Y          *apd.Decimal
	Iterations int
}

// iterationDigits is the precision the iteration product is rounded to before floor.
const iterationDigits = decimalx.Precision - 17

var (
	zero = apd.New(0, 0)
	half = apd.New(5, -1)
	one  = apd.New(1, 0)
	two  = apd.New(2, 0)
)

// FrameT returns frame / (totalFrames - 1) as an exact quotient at working precision.
func FrameT(frame, totalFrames int) (*apd.Decimal, error) {
	if totalFrames < 2 {
		return nil, fmt.Errorf("%w: total frames must be at least 2, got %d", ErrInvalidParams, totalFrames)
	}
	if frame < 0 || frame >= totalFrames {
		return nil, fmt.Errorf("%w: frame %d outside [0, %d)", ErrInvalidParams, frame, totalFrames)
	}
	c := decimalx.NewCalc()
	t := c.Quo(apd.New(int64(frame), 0), apd.New(int64(totalFrames-1), 0))
	return t, c.Err()
}

// Ease maps linear progress onto a piecewise power curve that slows the camera
// near both ends. The exponent is 1 + smoothingFrames/totalFrames.
func Ease(tLinear *apd.Decimal, totalFrames, smoothingFrames int) (*apd.Decimal, error) {
	if tLinear == nil {
		return nil, fmt.Errorf("%w: progress is required", ErrInvalidParams)
	}
	if tLinear.Cmp(zero) < 0 || tLinear.Cmp(one) > 0 {
		return nil, fmt.Errorf("%w: progress %s outside [0, 1]", ErrInvalidParams, decimalx.Format(tLinear))
	}
	if totalFrames <= 0 {
		return nil, fmt.Errorf("%w: total frames must be positive", ErrInvalidParams)
	}

	c := decimalx.NewCalc()
	p := c.Add(one, c.Quo(apd.New(int64(smoothingFrames), 0), apd.New(int64(totalFrames), 0)))

	var eased *apd.Decimal
	if tLinear.Cmp(half) < 0 {
		eased = c.Mul(half, c.Pow(c.Mul(two, tLinear), p))
	} else {
		eased = c.Sub(one, c.Mul(half, c.Pow(c.Mul(two, c.Sub(one, tLinear)), p)))
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("ease: %w", err)
	}
	return eased, nil
}

// Zoom interpolates exponentially between zoomStart and zoomEnd. The endpoints
// are returned exactly at t == 0 and t == 1.
func Zoom(t, zoomStart, zoomEnd *apd.Decimal) (*apd.Decimal, error) {
	switch {
	case t.IsZero(), zoomStart.Cmp(zoomEnd) == 0:
		return decimalx.Clone(zoomStart), nil
	case t.Cmp(one) == 0:
		return decimalx.Clone(zoomEnd), nil
	}
	c := decimalx.NewCalc()
	x0 := c.Log2(zoomStart)
	x1 := c.Sub(c.Log2(zoomEnd), x0)
	zoom := c.Pow2(c.Add(x0, c.Mul(t, x1)))
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("zoom: %w", err)
	}
	return zoom, nil
}

// PositionFactor returns the interpolation weight s for the camera position.
// It normalizes by reciprocal scale so position and perceived magnification
// advance together: s = (1 - 1/scale) / (1 - 1/maxScale). With equal zoom
// endpoints there is no scale to normalize by and the eased t is used.
func PositionFactor(t, zoom, zoomStart, zoomEnd *apd.Decimal) (*apd.Decimal, error) {
	if zoomStart.Cmp(zoomEnd) == 0 {
		return decimalx.Clone(t), nil
	}
	c := decimalx.NewCalc()
	scale := c.Quo(zoom, zoomStart)
	maxScale := c.Quo(zoomEnd, zoomStart)
	s := c.Quo(c.Sub(one, c.Quo(one, scale)), c.Sub(one, c.Quo(one, maxScale)))
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("position factor: %w", err)
	}
	return s, nil
}

// Iterations returns the iteration budget for zoom. Results below one are
// clamped to one so the renderer always receives a usable count.
func Iterations(zoom *apd.Decimal, base, scale int, formula IterationFormula) (int, error) {
	c := decimalx.NewCalc()
	arg := zoom
	if formula == FormulaLog2Plus1 {
		arg = c.Add(one, zoom)
	}
	// Drop guard digits so log2 of an exact power of two cannot floor one short.
	product := c.Round(c.Mul(c.Log2(arg), apd.New(int64(scale), 0)), iterationDigits)
	scaled := c.Floor(product)
	if err := c.Err(); err != nil {
		return 0, fmt.Errorf("iterations: %w", err)
	}
	extra, err := scaled.Int64()
	if err != nil {
		return 0, fmt.Errorf("iterations: %w", err)
	}
	total := int64(base) + extra
	if total < 1 {
		total = 1
	}
	return int(total), nil
}

// ComputeFrame maps linear progress in [0, 1] to a camera state. It is a pure
// function of its inputs: identical arguments always produce identical digits.
func ComputeFrame(tLinear *apd.Decimal, p Params) (Point, error) {
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	t, err := Ease(tLinear, p.TotalFrames, p.SmoothingFrames)
	if err != nil {
		return Point{}, err
	}
	zoom, err := Zoom(t, p.ZoomStart, p.ZoomEnd)
	if err != nil {
		return Point{}, err
	}
	s, err := PositionFactor(t, zoom, p.ZoomStart, p.ZoomEnd)
	if err != nil {
		return Point{}, err
	}
	x, err := decimalx.Lerp(p.CameraStart.X, p.CameraEnd.X, s)
	if err != nil {
		return Point{}, err
	}
	y, err := decimalx.Lerp(p.CameraStart.Y, p.CameraEnd.Y, s)
	if err != nil {
		return Point{}, err
	}
	level, err := decimalx.Log2(zoom)
	if err != nil {
		return Point{}, err
	}
	formula, _ := ParseIterationFormula(string(p.IterationFormula))
	iterations, err := Iterations(zoom, p.IterationsBase, p.IterationsScale, formula)
	if err != nil {
		return Point{}, err
	}
	return Point{
		T:          t,
		Zoom:       zoom,
		ZoomLevel:  level,
		X:          x,
		Y:          y,
		Iterations: iterations,
	}, nil
}

// PointAt computes the camera state for a frame index.
func PointAt(p Params, frame int) (Point, error) {
	t, err := FrameT(frame, p.TotalFrames)
	if err != nil {
		return Point{}, err
	}
	return ComputeFrame(t, p)
}

// Sample computes frames [from, to) in order.
func Sample(p Params, from, to int) ([]Point, error) {
	if from < 0 {
		from = 0
	}
	if to > p.TotalFrames {
		to = p.TotalFrames
	}
	if to <= from {
		return nil, nil
	}
	points := make([]Point, 0, to-from)
	for frame := from; frame < to; frame++ {
		point, err := PointAt(p, frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
		points = append(points, point)
	}
	return points, nil
}
