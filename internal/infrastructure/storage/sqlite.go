package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/glutenvergelijker/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
)`

type kvRow struct {
	Key       string        `db:"key"`
	Value     []byte        `db:"value"`
	ExpiresAt sql.NullInt64 `db:"expires_at"`
}

// SQLiteStore is a durable key-value store backed by a single SQLite table.
// Expiry is stored as unix milliseconds; NULL never expires.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrPersistence, path, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", domain.ErrPersistence, path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrPersistence, err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row kvRow
	err := s.db.GetContext(ctx, &row, `SELECT key, value, expires_at FROM kv WHERE key = ? LIMIT 1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrPersistence, key, err)
	}

	if row.ExpiresAt.Valid && s.now().UnixMilli() > row.ExpiresAt.Int64 {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, domain.ErrCacheMiss
	}
	return row.Value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := kvRow{Key: key, Value: value}
	if ttl > 0 {
		row.ExpiresAt = sql.NullInt64{Int64: s.now().Add(ttl).UnixMilli(), Valid: true}
	}

	query := `
		INSERT INTO kv (key, value, expires_at)
		VALUES (:key, :value, :expires_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrCacheMiss):
		return false, nil
	default:
		return false, err
	}
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
