package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_session_values_updated ON session_values(updated_at);
`

// SQLiteStore is a file-backed SessionStore for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the session database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("sessions: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessions: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessions: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = ? AND key = ?`,
		sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sessions: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_values (session_id, key, value, updated_at)
		VALUES (?,?,?,?)
		ON CONFLICT(session_id, key) DO UPDATE SET
			value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sessions: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id = ? AND key = ?`,
		sessionID, key)
	if err != nil {
		return fmt.Errorf("sessions: delete %s: %w", key, err)
	}
	return nil
}

// Cleanup deletes values not touched within maxAge. The host expires its own
// sessions; this only keeps the database from growing without bound.
func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE updated_at < ?`, cutoff); err != nil {
		return fmt.Errorf("sessions: cleanup: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
