package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"newsrelay/internal/model"
	"newsrelay/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database, so the cursor
// and seen set survive restarts.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Cursor returns the stored cursor for account, or the zero Cursor.
func (s *SQLite) Cursor(ctx context.Context, account string) (model.Cursor, error) {
	var lastID string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_id FROM cursors WHERE account = ?`, account,
	).Scan(&lastID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query cursor: %w", err)
	}
	return model.Cursor(lastID), nil
}

// SetCursor stores the cursor for account.
func (s *SQLite) SetCursor(ctx context.Context, account string, cursor model.Cursor) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cursors (account, last_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(account) DO UPDATE SET last_id = excluded.last_id, updated_at = excluded.updated_at`,
		account, string(cursor), now,
	)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

// MarkSeen records that a feed entry key has been queued for delivery.
func (s *SQLite) MarkSeen(ctx context.Context, key string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_links (link, seen_at) VALUES (?, ?)`,
		key, now,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// IsSeen checks whether a feed entry key has already been queued.
func (s *SQLite) IsSeen(ctx context.Context, key string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_links WHERE link = ?`, key,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}
