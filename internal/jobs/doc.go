// Package jobs persists background job history (project creation and shot
// renders) in SQLite so the CLI and daemon can report on work after it ends
// or after a restart.
package jobs
