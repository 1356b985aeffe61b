// Package session persists the resumable state of a render.
//
// A Session is the immutable trajectory description plus a single mutable
// counter, RenderedFrames. Save replaces the file atomically so a crash leaves
// either the previous or the new state on disk. Load rejects anything it
// cannot fully trust with a *CorruptSessionError naming the offending field,
// and also reads the flat session.json written by the earlier Python tool.
// Lock keeps two dispatchers from advancing the same session.
package session
