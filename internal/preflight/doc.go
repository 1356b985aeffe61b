// Package preflight provides readiness checks for the programs, files, and
// directories a render depends on.
//
// These checks run in two contexts:
//   - The render and resume commands call RunAll before the first frame.
//     If any check fails the command stops, so a multi-hour run does not die
//     on frame zero.
//   - The "zoomrender preflight" command prints every result as a table.
package preflight
