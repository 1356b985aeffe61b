// Package renderer is the boundary to the external fractal renderer.
//
// Invoker turns a trajectory point into the renderer's argv, optionally
// wrapped in an MPI launcher (-hostfile, --mca btl_tcp_if_include, -np), and
// runs it once through a procexec.Executor. Retrying is the caller's job;
// every Invoke is one attempt and reports an Outcome.
package renderer
