// Package workflow runs project creation and shot renders in the background.
//
// Manager owns a single worker slot: one job runs at a time and submitting
// while it is occupied fails with ErrBusy instead of queueing. Requests are
// validated synchronously so configuration mistakes surface to the caller
// before a job record is created. Every job is persisted through the jobs
// store and updated as frames complete.
package workflow
