// Package dispatch drives a render session frame by frame.
//
// The Dispatcher walks frames from the session's RenderedFrames up to
// TotalFrames-1. For each frame it computes the camera point, invokes the
// renderer up to RetryLimit times with identical arguments, and on success
// appends the progress log line, advances the counter, and saves the session
// file, in that order. A crash between any two of those steps re-renders at
// most one frame on resume.
//
// Run history and metrics are side channels: failures to record them are
// logged and never stop a render.
package dispatch
