package preflight

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"zoomrender/internal/config"
	"zoomrender/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFileReadable verifies that a regular file exists and can be read.
func CheckFileReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckNetInterface verifies that the interface passed to btl_tcp_if_include
// exists on this node and is up.
func CheckNetInterface(name string) Result {
	const label = "MPI network interface"
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: %v)", name, err)}
	}
	if iface.Flags&net.FlagUp == 0 {
		return Result{Name: label, Detail: fmt.Sprintf("%s (error: interface is down)", name)}
	}
	return Result{Name: label, Passed: true, Detail: fmt.Sprintf("%s (up)", name)}
}

// CheckSystemDeps evaluates the external programs for the given config. The
// render commands and the preflight command share this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config, includeEncoder bool) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Renderer",
			Command:     cfg.Renderer.Program,
			Description: "Renders one frame per invocation",
		},
	}
	if cfg.Renderer.Launcher != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "MPI launcher",
			Command:     cfg.Renderer.Launcher,
			Description: "Distributes the renderer across the cluster",
		})
	}
	if includeEncoder {
		requirements = append(requirements, deps.Requirement{
			Name:        "FFmpeg",
			Command:     cfg.Encoder.FFmpeg,
			Description: "Assembles frames into a video",
		})
	}
	return deps.CheckBinaries(requirements)
}
