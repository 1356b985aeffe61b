package dispatch

import (
	"fmt"
	"strings"

	"zoomrender/internal/services"
)

// RetryExhaustedError reports a frame whose every attempt failed. The session
// is left at the frame so a resume retries it.
type RetryExhaustedError struct {
	Frame          int
	Attempts       int
	Command        []string
	LastDiagnostic string
	Err            error
}

func (e *RetryExhaustedError) Error() string {
	msg := fmt.Sprintf("frame %d failed after %d attempts (command: %s)", e.Frame, e.Attempts, strings.Join(e.Command, " "))
	if e.LastDiagnostic != "" {
		msg += ": " + lastLine(e.LastDiagnostic)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RetryExhaustedError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrExternalTool}
	}
	return []error{services.ErrExternalTool, e.Err}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
