package identifier

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the concept identifier map in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS concept_ids (
		concept     TEXT PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		assigned_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT concept, id FROM concept_ids`)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var concept, id string
		if err := rows.Scan(&concept, &id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		out[concept] = id
	}
	return out, rows.Err()
}

// Save implements Store. Entries are written in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO concept_ids (concept, id, assigned_at) VALUES (?, ?, datetime('now'))`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for concept, id := range entries {
		if _, err := stmt.ExecContext(ctx, concept, id); err != nil {
			return fmt.Errorf("save identifier %s: %w", concept, err)
		}
	}
	return tx.Commit()
}
