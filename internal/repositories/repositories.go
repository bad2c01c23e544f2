package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

const schema = `
	CREATE TABLE IF NOT EXISTS master_volume (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		volume INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS track_list_volumes (
		group_index INTEGER NOT NULL,
		track_list_index INTEGER NOT NULL,
		volume INTEGER NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (group_index, track_list_index)
	)
`

// CreateSchema creates the state tables if they do not exist.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}
