// Package services defines shared utilities consumed by the project, render
// and workflow packages and by the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp project names, render versions, job IDs and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline taxonomy (already exists, not found, invalid
//     configuration, external tool failure).
//   - ToolError, which carries the captured output of a failed adapter run.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across the CLI and the daemon.
package services
