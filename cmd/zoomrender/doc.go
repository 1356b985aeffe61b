// Package main hosts the zoomrender CLI entrypoint and command graph.
//
// render creates a session directory and drives the dispatcher; resume picks
// a session file back up; status, plan, history, and preflight inspect state
// without touching the renderer; encode hands a finished frame sequence to
// ffmpeg. Configuration is resolved once per invocation by commandContext,
// and command flags override the configured defaults.
package main
