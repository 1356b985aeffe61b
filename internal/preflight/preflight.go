package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"zoomrender/internal/config"
	"zoomrender/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options narrows RunAll to the resources one command touches.
type Options struct {
	// OutputDir overrides cfg.Paths.OutputDir, e.g. a resumed session's directory.
	OutputDir string
	// SkipEncoder omits the ffmpeg check.
	SkipEncoder bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg, !opts.SkipEncoder) {
		results = append(results, fromStatus(status))
	}

	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}
	results = append(results, CheckDirectoryAccess("Output directory", outputDir))

	if cfg.Paths.HistoryDB != "" {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.Paths.HistoryDB)))
	}

	if strings.TrimSpace(cfg.Renderer.Launcher) != "" {
		if cfg.Renderer.HostFile != "" {
			results = append(results, CheckFileReadable("MPI hostfile", cfg.Renderer.HostFile))
		}
		if cfg.Renderer.NetInterface != "" {
			results = append(results, CheckNetInterface(cfg.Renderer.NetInterface))
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(status deps.Status) Result {
	if status.Available {
		detail := status.Resolved
		if detail == "" {
			detail = status.Command
		}
		return Result{Name: status.Name, Passed: true, Detail: detail}
	}
	if status.Optional {
		return Result{Name: status.Name, Passed: true, Detail: status.Detail + " (optional)"}
	}
	return Result{Name: status.Name, Detail: status.Detail}
}
