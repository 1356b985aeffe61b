// Package statusserver serves the progress of a running render over HTTP.
//
// The server is optional and read-only: /healthz for liveness, /status for a
// JSON snapshot of the dispatcher, and /metrics for the Prometheus registry.
// It is started by the render and resume commands when a listen address is
// configured and stops when the command's context is cancelled.
package statusserver
