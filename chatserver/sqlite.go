package chatserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vovakirdan/livechat-sdk-go/livechat"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Append stores msg.
func (s *SQLiteStore) Append(ctx context.Context, msg livechat.ChatMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, username, content, created_at) VALUES (?, ?, ?, ?)`,
		string(msg.ID), msg.Author, msg.Text, msg.SentAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("append message %s: %w", msg.ID, ErrDuplicateMessage)
		}
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int, before string) ([]livechat.ChatMessage, bool, error) {
	if limit <= 0 {
		return nil, false, nil
	}

	upper := int64(-1)
	if before != "" {
		err := s.db.QueryRowContext(ctx, `SELECT seq FROM messages WHERE id = ?`, before).Scan(&upper)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("list messages before %s: %w", before, ErrUnknownCursor)
		}
		if err != nil {
			return nil, false, fmt.Errorf("resolve cursor: %w", err)
		}
	}

	var (
		rows *sql.Rows
		err  error
	)
	// One extra row tells whether anything older remains.
	if upper >= 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, username, content, created_at FROM messages WHERE seq < ? ORDER BY seq DESC LIMIT ?`,
			upper, limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, username, content, created_at FROM messages ORDER BY seq DESC LIMIT ?`,
			limit+1)
	}
	if err != nil {
		return nil, false, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]livechat.ChatMessage, 0, limit+1)
	for rows.Next() {
		var (
			m       livechat.ChatMessage
			id      string
			created int64
		)
		if err := rows.Scan(&id, &m.Author, &m.Text, &created); err != nil {
			return nil, false, fmt.Errorf("scan message row: %w", err)
		}
		m.ID = livechat.MessageID(id)
		m.SentAt = time.Unix(0, created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate messages: %w", err)
	}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	slices.Reverse(msgs)
	return msgs, hasMore, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
