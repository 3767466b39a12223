// Package msglog is the local append-only message log. It is an audit trail
// independent of the remote record store: entries are never updated or deleted.
package msglog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one logged inbound message.
type Entry struct {
	ID        int64
	Platform  string
	Sender    string
	UpdateID  int64 // upstream delivery id, usable as an idempotency key
	Text      string
	Raw       string
	CreatedAt time.Time
}

// Log is a sqlite-backed append-only message log.
type Log struct {
	db *sql.DB
}

// Open opens (and creates if needed) the log database at dbPath.
func Open(dbPath string) (*Log, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Log{db: db}, nil
}

func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Ping checks the underlying connection, used by the liveness endpoint.
func (l *Log) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Append writes one entry. CreatedAt defaults to now when zero.
func (l *Log) Append(ctx context.Context, e Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO messages (platform, sender, update_id, text, raw, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Platform, e.Sender, e.UpdateID, e.Text, e.Raw, createdAt)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, platform, sender, update_id, text, created_at FROM messages ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Platform, &e.Sender, &e.UpdateID, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
