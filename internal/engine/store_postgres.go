package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (session_id, key)
)`

// PostgresStore is a pgx-backed SessionStore for hosts that run more than
// one node against a shared session database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore creates a pgx pool against databaseURL and ensures the
// session schema exists.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("sessions: database URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("sessions: parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("sessions: create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sessions: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sessions: init schema: %w", err)
	}

	slog.Info("session postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM session_values WHERE session_id = $1 AND key = $2`,
		sessionID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sessions: get %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_values (session_id, key, value, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id, key) DO UPDATE SET
			value = excluded.value, updated_at = excluded.updated_at`,
		sessionID, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sessions: set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM session_values WHERE session_id = $1 AND key = $2`,
		sessionID, key)
	if err != nil {
		return fmt.Errorf("sessions: delete %s: %w", key, err)
	}
	return nil
}

// Cleanup deletes values not touched within maxAge.
func (s *PostgresStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM session_values WHERE updated_at < $1`, cutoff); err != nil {
		return fmt.Errorf("sessions: cleanup: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
