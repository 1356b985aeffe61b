package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"

	"zoomrender/internal/config"
	"zoomrender/internal/decimalx"
	"zoomrender/internal/services"
	"zoomrender/internal/trajectory"
)

// launcherFlags override the [renderer] and [server] config sections for one
// invocation. Unchanged flags keep the configured value.
type launcherFlags struct {
	program      string
	launcher     string
	hostFile     string
	netInterface string
	processes    int
	retryLimit   int
	listen       string
	encode       bool
	noPreflight  bool
}

func (f *launcherFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.program, "program", "", "Renderer executable (default from config)")
	flags.StringVar(&f.launcher, "launcher", "", "MPI launcher; empty string runs the renderer directly (default from config)")
	flags.StringVar(&f.hostFile, "hostfile", "", "MPI hostfile path (default from config)")
	flags.StringVar(&f.netInterface, "net-interface", "", "Network interface for MPI TCP traffic (default from config)")
	flags.IntVar(&f.processes, "np", 0, "MPI process count (default from config)")
	flags.IntVar(&f.retryLimit, "retry-limit", 0, "Attempts per frame before giving up (default from config)")
	flags.StringVar(&f.listen, "listen", "", "Serve /status and /metrics on this address while rendering")
	flags.BoolVar(&f.encode, "encode", false, "Encode the frames with ffmpeg after the last frame")
	flags.BoolVar(&f.noPreflight, "no-preflight", false, "Skip binary and directory checks before rendering")
}

// apply returns a copy of cfg with changed flags applied.
func (f *launcherFlags) apply(cmd *cobra.Command, cfg *config.Config) (config.Config, error) {
	out := *cfg
	flags := cmd.Flags()
	if flags.Changed("program") {
		out.Renderer.Program = strings.TrimSpace(f.program)
	}
	if flags.Changed("launcher") {
		out.Renderer.Launcher = strings.TrimSpace(f.launcher)
	}
	if flags.Changed("hostfile") {
		out.Renderer.HostFile = strings.TrimSpace(f.hostFile)
	}
	if flags.Changed("net-interface") {
		out.Renderer.NetInterface = strings.TrimSpace(f.netInterface)
	}
	if flags.Changed("np") {
		out.Renderer.Processes = f.processes
	}
	if flags.Changed("retry-limit") {
		out.Renderer.RetryLimit = f.retryLimit
	}
	if flags.Changed("listen") {
		out.Server.Listen = strings.TrimSpace(f.listen)
	}
	if err := out.Validate(); err != nil {
		return config.Config{}, services.Wrap(services.ErrConfiguration, "cli", "apply flags", "invalid renderer settings", err)
	}
	return out, nil
}

// trajectoryFlags describe a new camera path. Decimal flags are parsed
// exactly so deep zooms keep every digit typed on the command line.
type trajectoryFlags struct {
	frames           int
	startFrame       int
	zoomStart        string
	zoomEnd          string
	cx0, cy0         string
	cx1, cy1         string
	iterationsBase   int
	iterationsScale  int
	iterationFormula string
	smoothingFrames  int
}

func (f *trajectoryFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.frames, "frames", 5, "Total number of frames")
	flags.IntVar(&f.startFrame, "start-frame", 0, "Treat frames before this index as already rendered")
	flags.StringVar(&f.zoomStart, "zoom-start", "1", "Zoom of the first frame")
	flags.StringVar(&f.zoomEnd, "zoom-end", "10", "Zoom of the last frame")
	flags.StringVar(&f.cx0, "cx0", "0", "Camera X of the first frame")
	flags.StringVar(&f.cy0, "cy0", "0", "Camera Y of the first frame")
	flags.StringVar(&f.cx1, "cx1", "0", "Camera X of the last frame")
	flags.StringVar(&f.cy1, "cy1", "0", "Camera Y of the last frame")
	flags.IntVar(&f.iterationsBase, "iterations-base", 0, "Iterations at zoom 1 (default from config)")
	flags.IntVar(&f.iterationsScale, "iterations-scale", 0, "Iterations added per doubling of zoom (default from config)")
	flags.StringVar(&f.iterationFormula, "iteration-formula", "", "log2 or log2p1 (default from config)")
	flags.IntVar(&f.smoothingFrames, "smoothing-frames", 0, "Frames over which the camera eases in and out (default from config)")
}

func (f *trajectoryFlags) params(cmd *cobra.Command, cfg *config.Config) (trajectory.Params, error) {
	p := trajectory.Params{
		TotalFrames:      f.frames,
		SmoothingFrames:  cfg.Trajectory.SmoothingFrames,
		IterationsBase:   cfg.Trajectory.IterationsBase,
		IterationsScale:  cfg.Trajectory.IterationsScale,
		IterationFormula: cfg.IterationFormula(),
	}
	flags := cmd.Flags()
	if flags.Changed("iterations-base") {
		p.IterationsBase = f.iterationsBase
	}
	if flags.Changed("iterations-scale") {
		p.IterationsScale = f.iterationsScale
	}
	if flags.Changed("smoothing-frames") {
		p.SmoothingFrames = f.smoothingFrames
	}
	if flags.Changed("iteration-formula") {
		formula, err := trajectory.ParseIterationFormula(f.iterationFormula)
		if err != nil {
			return trajectory.Params{}, services.Wrap(services.ErrValidation, "cli", "parse flags", "--iteration-formula", err)
		}
		p.IterationFormula = formula
	}

	decimals := []struct {
		flag  string
		value string
		dst   **apd.Decimal
	}{
		{"zoom-start", f.zoomStart, &p.ZoomStart},
		{"zoom-end", f.zoomEnd, &p.ZoomEnd},
		{"cx0", f.cx0, &p.CameraStart.X},
		{"cy0", f.cy0, &p.CameraStart.Y},
		{"cx1", f.cx1, &p.CameraEnd.X},
		{"cy1", f.cy1, &p.CameraEnd.Y},
	}
	for _, d := range decimals {
		parsed, err := decimalx.Parse(d.value)
		if err != nil {
			return trajectory.Params{}, services.Wrap(services.ErrValidation, "cli", "parse flags", fmt.Sprintf("--%s", d.flag), err)
		}
		*d.dst = parsed
	}
	return p, nil
}

// passthroughArgs returns the arguments after "--", which are appended to
// every renderer invocation.
func passthroughArgs(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("unexpected arguments %q; pass renderer arguments after --", args)
		}
		return nil, nil
	}
	if dash > 0 {
		return nil, fmt.Errorf("unexpected arguments %q before --", args[:dash])
	}
	return args[dash:], nil
}
