// Package history records render runs and individual renderer attempts in
// SQLite.
//
// A run is one dispatcher execution over a session, from start (or resume)
// until completion, failure, or interruption. Attempts are the renderer
// invocations inside a run, successful or not. The data backs the history
// command and benchmarking of per-frame render times. The session file
// remains the only source of truth for resume; history is advisory.
package history
