package jobs

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var historyDDL string

// historyVersion is kept in the database's user_version pragma. A fresh file
// reports 0.
const historyVersion = 1

// ErrSchemaMismatch reports a job history file written with a different
// table layout.
var ErrSchemaMismatch = errors.New("job history layout mismatch")

// ensureSchema creates the job tables in a new history file and refuses one
// stamped with another layout version. Job history is disposable, so there is
// no migration path.
func (s *Store) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin job history setup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read job history version: %w", err)
	}
	switch version {
	case historyVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s is stamped %d, this build writes %d; move the file aside to start a new history",
			ErrSchemaMismatch, s.path, version, historyVersion)
	}

	if _, err := tx.ExecContext(ctx, historyDDL); err != nil {
		return fmt.Errorf("create job tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", historyVersion)); err != nil {
		return fmt.Errorf("stamp job history version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit job history setup: %w", err)
	}
	return nil
}
