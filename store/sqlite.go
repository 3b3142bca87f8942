package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteKV is a sqlite-backed KV implementation. One row per key with an
// expiry timestamp; reads skip expired rows and an opportunistic sweep
// removes them.
type SQLiteKV struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_ts BIGINT NOT NULL,
	expires_ts BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv (expires_ts);
`

// NewSQLiteKV opens (or creates) the store at dsn. Use ":memory:" for an
// ephemeral store.
func NewSQLiteKV(dsn string) (*SQLiteKV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return &SQLiteKV{db: db}, nil
}

// Get returns the value for key, or nil when absent or expired.
func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresTS int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_ts FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresTS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	if expiresTS > 0 && expiresTS <= time.Now().Unix() {
		// Expired; clean up lazily.
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			slog.Warn("failed to remove expired key", "key", key, "error", err)
		}
		return nil, nil
	}
	return value, nil
}

// Set stores value under key with the given TTL.
func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var expiresTS int64
	if ttl > 0 {
		expiresTS = now.Add(ttl).Unix()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_ts, expires_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key)
		DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts, expires_ts = excluded.expires_ts
	`, key, value, now.Unix(), expiresTS)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Sweep removes all expired rows and returns how many were deleted.
func (s *SQLiteKV) Sweep(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_ts > 0 AND expires_ts <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired keys: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

var _ KV = (*SQLiteKV)(nil)
