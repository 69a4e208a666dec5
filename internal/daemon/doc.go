// Package daemon coordinates the long-running dccpiped process.
//
// It wires configuration, job storage, the workflow manager and the HTTP API
// into a single lifecycle with flock-based locking to prevent multiple
// instances. Jobs left pending or running by a previous process are marked
// failed on start.
//
// Keep orchestration logic here: project and render behaviour lives in their
// own packages while the daemon focuses on startup, shutdown and status.
package daemon
