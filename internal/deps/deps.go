// Package deps checks that the external programs a render needs are present.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external program zoomrender relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Resolved is the absolute path that would be executed.
	Resolved string
	Detail   string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands containing a path separator are checked in place, relative to the
// working directory; bare names are resolved from PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = describeLookupError(cmd, err)
			results = append(results, status)
			continue
		}
		if abs, absErr := filepath.Abs(resolved); absErr == nil {
			resolved = abs
		}
		status.Available = true
		status.Resolved = resolved
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func describeLookupError(cmd string, err error) string {
	if !strings.ContainsRune(cmd, filepath.Separator) {
		return fmt.Sprintf("binary %q not found", cmd)
	}
	info, statErr := os.Stat(cmd)
	switch {
	case statErr != nil:
		return fmt.Sprintf("%s does not exist", cmd)
	case info.IsDir():
		return fmt.Sprintf("%s is a directory", cmd)
	case !isExecutable(info):
		return fmt.Sprintf("%s is not executable", cmd)
	default:
		return err.Error()
	}
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
