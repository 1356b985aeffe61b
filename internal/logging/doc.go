// Package logging assembles structured slog loggers and formatting helpers used
// across zoomrender.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatcher code tags log
// lines with session IDs, run IDs, and frame indexes. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
