// Package hoststore persists the discovered backend address across process
// restarts in a small SQLite settings table.
package hoststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const hostKey = "detected_server_host"

// Store is a single-key persisted store for the resolved host.
type Store struct {
	db *sql.DB
}

// Open creates or opens the settings database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open host store: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize host store schema: %w", err)
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS settings (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME NOT NULL
    );
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Load returns the persisted host, or the empty string when none is stored.
func (s *Store) Load(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, hostKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load host: %w", err)
	}
	return value, nil
}

// Save writes the host, replacing any previous value.
func (s *Store) Save(ctx context.Context, host string) error {
	query := `
        INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `
	if _, err := s.db.ExecContext(ctx, query, hostKey, host, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save host: %w", err)
	}
	return nil
}

// Delete removes the persisted host.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, hostKey); err != nil {
		return fmt.Errorf("failed to delete host: %w", err)
	}
	return nil
}
