package renderer_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"zoomrender/internal/decimalx"
	"zoomrender/internal/procexec"
	"zoomrender/internal/renderer"
	"zoomrender/internal/trajectory"
)

type stubExecutor struct {
	calls  [][]string
	result procexec.Result
	err    error
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, _ func(string)) (procexec.Result, error) {
	s.calls = append(s.calls, append([]string{binary}, args...))
	return s.result, s.err
}

func samplePoint() trajectory.Point {
	return trajectory.Point{
		Zoom:       decimalx.MustParse("1.2345678901234567890123456789E40"),
		X:          decimalx.MustParse("-0.743643887037158704752191506114774"),
		Y:          decimalx.MustParse("0.131825904205311970493132056385139"),
		Iterations: 2000,
	}
}

func TestCommandWrapsLauncher(t *testing.T) {
	inv, err := renderer.New(renderer.Config{
		Program: "./mandelbrot",
		Launcher: renderer.Launcher{
			Command:      "mpirun",
			HostFile:     "hosts",
			NetInterface: "eth0",
			Processes:    16,
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := inv.Command(renderer.Request{Point: samplePoint(), OutputPath: "frames/frame_3.png", Extra: []string{"--width", "1920"}})
	want := []string{
		"mpirun", "-hostfile", "hosts", "--mca", "btl_tcp_if_include", "eth0", "-np", "16",
		"./mandelbrot",
		"--zoom", "1.2345678901234567890123456789E+40",
		"-cx", "-0.743643887037158704752191506114774",
		"-cy", "0.131825904205311970493132056385139",
		"--iterations", "2000",
		"-od", "frames/frame_3.png",
		"--width", "1920",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("argv mismatch\n got %q\nwant %q", got, want)
	}
}

func TestCommandWithoutLauncher(t *testing.T) {
	inv, err := renderer.New(renderer.Config{Program: "render"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := inv.Command(renderer.Request{Point: samplePoint(), OutputPath: "out.png"})
	if got[0] != "render" || slices.Contains(got, "-np") {
		t.Fatalf("unexpected argv %q", got)
	}
}

func TestCommandOmitsOptionalLauncherFlags(t *testing.T) {
	inv, err := renderer.New(renderer.Config{Program: "render", Launcher: renderer.Launcher{Command: "mpirun", Processes: 2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := strings.Join(inv.Command(renderer.Request{Point: samplePoint(), OutputPath: "o.png"}), " ")
	if strings.Contains(got, "-hostfile") || strings.Contains(got, "--mca") {
		t.Fatalf("unexpected optional flags in %q", got)
	}
	if !strings.HasPrefix(got, "mpirun -np 2 render --zoom") {
		t.Fatalf("unexpected prefix %q", got)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := renderer.New(renderer.Config{}); err == nil {
		t.Fatal("expected error for empty program")
	}
	if _, err := renderer.New(renderer.Config{Program: "x", Launcher: renderer.Launcher{Command: "mpirun"}}); err == nil {
		t.Fatal("expected error for launcher without process count")
	}
}

func TestInvokeReportsOutcome(t *testing.T) {
	stub := &stubExecutor{}
	tick := time.Unix(0, 0)
	clock := func() time.Time {
		tick = tick.Add(2 * time.Second)
		return tick
	}
	inv, err := renderer.New(renderer.Config{Program: "render"}, renderer.WithExecutor(stub), renderer.WithClock(clock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ok := inv.Invoke(context.Background(), renderer.Request{Point: samplePoint(), OutputPath: "frame_0.png"})
	if !ok.Success || ok.Err != nil {
		t.Fatalf("expected success, got %+v", ok)
	}
	if ok.Elapsed != 2*time.Second {
		t.Fatalf("elapsed = %v", ok.Elapsed)
	}
	if len(stub.calls) != 1 || stub.calls[0][0] != "render" {
		t.Fatalf("unexpected calls %q", stub.calls)
	}

	stub.result = procexec.Result{ExitCode: 1, Diagnostic: "  out of memory\n"}
	stub.err = errors.New("exit status 1")
	failed := inv.Invoke(context.Background(), renderer.Request{Point: samplePoint(), OutputPath: "frame_1.png"})
	if failed.Success || failed.Err == nil {
		t.Fatalf("expected failure, got %+v", failed)
	}
	if failed.ExitCode != 1 || failed.Diagnostic != "out of memory" {
		t.Fatalf("unexpected failure details %+v", failed)
	}
}

func TestFrameFileName(t *testing.T) {
	if got := renderer.FrameFileName(42); got != "frame_42.png" {
		t.Fatalf("FrameFileName = %q", got)
	}
}
