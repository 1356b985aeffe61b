package trajectory_test

import (
	"errors"
	"testing"

	"github.com/cockroachdb/apd/v3"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/trajectory"
)

func dec(s string) *apd.Decimal { return decimalx.MustParse(s) }

func scenarioParams() trajectory.Params {
	return trajectory.Params{
		TotalFrames:      5,
		SmoothingFrames:  1,
		ZoomStart:        dec("1"),
		ZoomEnd:          dec("16"),
		CameraStart:      trajectory.Vec2{X: dec("0"), Y: dec("0")},
		CameraEnd:        trajectory.Vec2{X: dec("1"), Y: dec("1")},
		IterationsBase:   512,
		IterationsScale:  64,
		IterationFormula: trajectory.FormulaLog2,
	}
}

func deepZoomParams(zoomStart, zoomEnd string) trajectory.Params {
	return trajectory.Params{
		TotalFrames:      60,
		SmoothingFrames:  12,
		ZoomStart:        dec(zoomStart),
		ZoomEnd:          dec(zoomEnd),
		CameraStart:      trajectory.Vec2{X: dec("-0.5"), Y: dec("0")},
		CameraEnd:        trajectory.Vec2{X: dec("-0.743643887037158704752191506114774"), Y: dec("0.131825904205311970493132056385139")},
		IterationsBase:   256,
		IterationsScale:  32,
		IterationFormula: trajectory.FormulaLog2,
	}
}

func near(t *testing.T, got, want *apd.Decimal, exp int32) bool {
	t.Helper()
	c := decimalx.NewCalc()
	diff := c.Sub(got, want)
	if err := c.Err(); err != nil {
		t.Fatalf("sub: %v", err)
	}
	diff.Abs(diff)
	return diff.Cmp(apd.New(1, exp)) <= 0
}

func TestComputeFrameHitsEndpointsExactly(t *testing.T) {
	for _, p := range []trajectory.Params{scenarioParams(), deepZoomParams("1", "1E250"), deepZoomParams("1E80", "3")} {
		start, err := trajectory.ComputeFrame(dec("0"), p)
		if err != nil {
			t.Fatalf("ComputeFrame(0): %v", err)
		}
		if start.Zoom.Cmp(p.ZoomStart) != 0 {
			t.Fatalf("zoom at t=0 = %s, want %s", decimalx.Format(start.Zoom), decimalx.Format(p.ZoomStart))
		}
		if start.X.Cmp(p.CameraStart.X) != 0 || start.Y.Cmp(p.CameraStart.Y) != 0 {
			t.Fatalf("position at t=0 = (%s, %s)", decimalx.Format(start.X), decimalx.Format(start.Y))
		}

		end, err := trajectory.ComputeFrame(dec("1"), p)
		if err != nil {
			t.Fatalf("ComputeFrame(1): %v", err)
		}
		if end.Zoom.Cmp(p.ZoomEnd) != 0 {
			t.Fatalf("zoom at t=1 = %s, want %s", decimalx.Format(end.Zoom), decimalx.Format(p.ZoomEnd))
		}
		if !near(t, end.X, p.CameraEnd.X, -70) || !near(t, end.Y, p.CameraEnd.Y, -70) {
			t.Fatalf("position at t=1 = (%s, %s)", decimalx.Format(end.X), decimalx.Format(end.Y))
		}
	}
}

func TestScenarioFiveFrames(t *testing.T) {
	p := scenarioParams()
	points, err := trajectory.Sample(p, 0, p.TotalFrames)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}

	first, last, mid := points[0], points[4], points[2]
	if first.Zoom.Cmp(dec("1")) != 0 || !first.X.IsZero() || !first.Y.IsZero() {
		t.Fatalf("frame 0 = zoom %s pos (%s, %s)", decimalx.Format(first.Zoom), decimalx.Format(first.X), decimalx.Format(first.Y))
	}
	if last.Zoom.Cmp(dec("16")) != 0 || last.X.Cmp(dec("1")) != 0 || last.Y.Cmp(dec("1")) != 0 {
		t.Fatalf("frame 4 = zoom %s pos (%s, %s)", decimalx.Format(last.Zoom), decimalx.Format(last.X), decimalx.Format(last.Y))
	}

	if mid.Zoom.Cmp(dec("1")) <= 0 || mid.Zoom.Cmp(dec("16")) >= 0 {
		t.Fatalf("frame 2 zoom %s not strictly inside (1, 16)", decimalx.Format(mid.Zoom))
	}
	// The eased midpoint is 0.5, so zoom is 2^2 and the reciprocal-scale
	// weight is (1 - 1/4) / (1 - 1/16) = 0.8 rather than the linear 0.5.
	if !near(t, mid.Zoom, dec("4"), -70) {
		t.Fatalf("frame 2 zoom = %s, want 4", decimalx.Format(mid.Zoom))
	}
	if !near(t, mid.X, dec("0.8"), -70) || !near(t, mid.Y, dec("0.8"), -70) {
		t.Fatalf("frame 2 position = (%s, %s), want (0.8, 0.8)", decimalx.Format(mid.X), decimalx.Format(mid.Y))
	}
	if near(t, mid.X, dec("0.5"), -3) {
		t.Fatal("frame 2 position matches linear-in-t interpolation")
	}
	if first.Iterations != 512 || last.Iterations != 768 {
		t.Fatalf("iterations at endpoints = %d, %d; want 512, 768", first.Iterations, last.Iterations)
	}
}

func TestZoomIsMonotonic(t *testing.T) {
	cases := []struct {
		name       string
		params     trajectory.Params
		increasing bool
	}{
		{name: "zoom in", params: deepZoomParams("1", "1E250"), increasing: true},
		{name: "zoom out", params: deepZoomParams("1E250", "1"), increasing: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := trajectory.Sample(tc.params, 0, tc.params.TotalFrames)
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			for i := 1; i < len(points); i++ {
				cmp := points[i].Zoom.Cmp(points[i-1].Zoom)
				if tc.increasing && cmp <= 0 {
					t.Fatalf("zoom not increasing at frame %d: %s -> %s", i, decimalx.Format(points[i-1].Zoom), decimalx.Format(points[i].Zoom))
				}
				if !tc.increasing && cmp >= 0 {
					t.Fatalf("zoom not decreasing at frame %d", i)
				}
			}
		})
	}
}

func TestIterationsNonDecreasingWithZoom(t *testing.T) {
	p := deepZoomParams("0.5", "1E120")
	points, err := trajectory.Sample(p, 0, p.TotalFrames)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Iterations < points[i-1].Iterations {
			t.Fatalf("iterations decreased at frame %d: %d -> %d", i, points[i-1].Iterations, points[i].Iterations)
		}
	}
}

func TestIterationFormulas(t *testing.T) {
	cases := []struct {
		zoom    string
		base    int
		scale   int
		formula trajectory.IterationFormula
		want    int
	}{
		{"16", 512, 64, trajectory.FormulaLog2, 768},
		{"1024", 0, 1, trajectory.FormulaLog2, 10},
		{"0.5", 512, 64, trajectory.FormulaLog2, 448},
		{"16", 512, 64, trajectory.FormulaLog2Plus1, 773},
		{"1E-30", 0, 64, trajectory.FormulaLog2, 1},
	}
	for _, tc := range cases {
		got, err := trajectory.Iterations(dec(tc.zoom), tc.base, tc.scale, tc.formula)
		if err != nil {
			t.Fatalf("Iterations(%s): %v", tc.zoom, err)
		}
		if got != tc.want {
			t.Fatalf("Iterations(%s, %d, %d, %s) = %d, want %d", tc.zoom, tc.base, tc.scale, tc.formula, got, tc.want)
		}
	}
}

func TestStaticZoomPansWithEasedProgress(t *testing.T) {
	p := scenarioParams()
	p.ZoomEnd = dec("1")
	mid, err := trajectory.PointAt(p, 2)
	if err != nil {
		t.Fatalf("PointAt: %v", err)
	}
	if mid.Zoom.Cmp(dec("1")) != 0 {
		t.Fatalf("static zoom changed: %s", decimalx.Format(mid.Zoom))
	}
	if !near(t, mid.X, dec("0.5"), -70) {
		t.Fatalf("static zoom midpoint x = %s, want 0.5", decimalx.Format(mid.X))
	}
}

func TestMinimumTrajectoryHasTwoFrames(t *testing.T) {
	p := scenarioParams()
	p.TotalFrames = 2
	points, err := trajectory.Sample(p, 0, 2)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if points[0].Zoom.Cmp(p.ZoomStart) != 0 || points[1].Zoom.Cmp(p.ZoomEnd) != 0 {
		t.Fatal("two-frame trajectory should contain exactly the endpoints")
	}
}

func TestValidateRejectsBadParams(t *testing.T) {
	mutations := map[string]func(*trajectory.Params){
		"one frame":       func(p *trajectory.Params) { p.TotalFrames = 1 },
		"zero frames":     func(p *trajectory.Params) { p.TotalFrames = 0 },
		"zero zoom start": func(p *trajectory.Params) { p.ZoomStart = dec("0") },
		"negative zoom":   func(p *trajectory.Params) { p.ZoomEnd = dec("-4") },
		"missing coord":   func(p *trajectory.Params) { p.CameraEnd.Y = nil },
		"bad formula":     func(p *trajectory.Params) { p.IterationFormula = "cubic" },
		"neg smoothing":   func(p *trajectory.Params) { p.SmoothingFrames = -1 },
	}
	for name, mutate := range mutations {
		p := scenarioParams()
		mutate(&p)
		if err := p.Validate(); !errors.Is(err, trajectory.ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", name, err)
		}
		if _, err := trajectory.ComputeFrame(dec("0.5"), p); err == nil {
			t.Fatalf("%s: ComputeFrame accepted invalid params", name)
		}
	}
}

func TestComputeFrameIsDeterministic(t *testing.T) {
	p := deepZoomParams("1", "1E250")
	a, err := trajectory.PointAt(p, 37)
	if err != nil {
		t.Fatalf("PointAt: %v", err)
	}
	b, err := trajectory.PointAt(p.Clone(), 37)
	if err != nil {
		t.Fatalf("PointAt: %v", err)
	}
	if decimalx.Format(a.Zoom) != decimalx.Format(b.Zoom) || decimalx.Format(a.X) != decimalx.Format(b.X) || decimalx.Format(a.Y) != decimalx.Format(b.Y) || a.Iterations != b.Iterations {
		t.Fatal("identical inputs produced different frames")
	}
}

func TestFrameTBounds(t *testing.T) {
	if _, err := trajectory.FrameT(5, 5); err == nil {
		t.Fatal("expected error for frame == total")
	}
	got, err := trajectory.FrameT(1, 4)
	if err != nil {
		t.Fatalf("FrameT: %v", err)
	}
	if !near(t, got, dec("0.3333333333333333333333333333333333333333333333333333333333333333333333333333"), -76) {
		t.Fatalf("FrameT(1, 4) = %s", decimalx.Format(got))
	}
}
