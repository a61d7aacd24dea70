package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the token in a key/value table of a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// Compile-time check to ensure SQLiteStore implements TokenStore
var _ TokenStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the kv table exists.
// The token is stored under DefaultKey.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init 'kv' table schema: %w", err)
	}

	return &SQLiteStore{db: db, key: DefaultKey}, nil
}

// WithKey returns a store over the same database that keeps its value under key.
// Closing either store closes the shared database.
func (s *SQLiteStore) WithKey(key string) *SQLiteStore {
	return &SQLiteStore{db: s.db, key: key}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Read(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", s.key).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return token, nil
}

func (s *SQLiteStore) Write(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		s.key, token,
	)
	if err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", s.key); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
