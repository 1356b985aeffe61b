// Package services defines shared utilities consumed by the render pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, run IDs, and frame indexes for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (external tool, validation, configuration) for exit reporting and run
//     history.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
