// Package metadata owns the per-project manifest (Config/metadata.yaml).
//
// The Document type mirrors the on-disk YAML shape. Load and Save handle the
// file itself; Save writes through a temporary file and a rename so a reader
// never observes a partially written manifest. Store wraps one document and
// its path, and every mutation goes through Store.Update, which persists the
// new state before it becomes visible in memory.
package metadata
