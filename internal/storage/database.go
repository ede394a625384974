package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/fiszki/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLite keeps the store document in a single-row SQLite table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite creates a new database connection and ensures the schema is up to date.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{conn: db}, nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

// Load reads the stored document. An empty table is an empty store.
func (db *SQLite) Load(ctx context.Context) (*domain.Store, error) {
	var body string
	err := db.conn.QueryRowContext(ctx, `SELECT body FROM store WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	return Decode([]byte(body))
}

// Save replaces the stored document.
func (db *SQLite) Save(ctx context.Context, s *domain.Store) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO store (id, body, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(b), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}
