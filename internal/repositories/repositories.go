// package repositories persists terminal task outcomes in SQLite.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation.
package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that own a <table>_sequence counter.
var sequenced = map[string]bool{
	"task_records": true,
}

// NextSequence atomically increments and returns the next sequence number for table.
//
// Sequence numbers order task records by insertion even when timestamps collide.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counter := table + "_sequence"
	if _, err := tx.Exec("UPDATE " + counter + " SET value = value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", counter, err)
	}

	var sequence int
	if err := tx.QueryRow("SELECT value FROM " + counter + " WHERE id = 1").Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", counter, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}
	return sequence, nil
}
