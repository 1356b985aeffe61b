// Package procexec runs external programs for the renderer and encoder.
//
// Executor is the seam tests replace with scripted stubs. CommandExecutor
// streams stdout lines to a callback, keeps a bounded tail of stderr for
// diagnostics, and stops the child with SIGTERM when the context ends.
package procexec
