package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns the named counter in the sequences table.
//
// Sequence numbers give history rows a stable insertion order independent of timestamps.
func NextSequence(db *sql.DB, name string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("UPDATE sequences SET value = value + 1 WHERE name = ?", name)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return 0, fmt.Errorf("unknown sequence %q", name)
	}

	var sequence int
	if err := tx.QueryRow("SELECT value FROM sequences WHERE name = ?", name).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}
	return sequence, nil
}
