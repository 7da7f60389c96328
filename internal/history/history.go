// Package history keeps a local SQLite log of completed rewrites. Only
// metadata is stored; clipboard contents never reach the database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jmacedoit/reright/internal/command"
)

// Entry is one recorded rewrite attempt.
type Entry struct {
	ID          string
	StartedAt   time.Time
	Duration    time.Duration
	CommandWord string
	Mode        command.Mode
	Provider    string
	Model       string
	InputChars  int
	OutputChars int
	Error       string
}

// Failed reports whether the rewrite ended with an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is the SQLite-backed history log.
type Store struct {
	conn *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=2000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open history %q: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate history %q: %w", path, err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rewrites (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			command_word TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL,
			provider TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			input_chars INTEGER NOT NULL DEFAULT 0,
			output_chars INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_rewrites_started_at ON rewrites(started_at);
	`)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record inserts e, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO rewrites (id, started_at, duration_ms, command_word, mode, provider, model, input_chars, output_chars, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.StartedAt.UnixMilli(),
		e.Duration.Milliseconds(),
		e.CommandWord,
		string(e.Mode),
		e.Provider,
		e.Model,
		e.InputChars,
		e.OutputChars,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("record rewrite: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, command_word, mode, provider, model, input_chars, output_chars, error
		FROM rewrites
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e          Entry
			startedMS  int64
			durationMS int64
			mode       string
		)
		if err := rows.Scan(&e.ID, &startedMS, &durationMS, &e.CommandWord, &mode, &e.Provider, &e.Model, &e.InputChars, &e.OutputChars, &e.Error); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.StartedAt = time.UnixMilli(startedMS)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Mode = command.Mode(mode)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes everything but the newest keep entries and returns how many
// rows were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.conn.ExecContext(ctx, `
		DELETE FROM rewrites
		WHERE rowid NOT IN (
			SELECT rowid FROM rewrites ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return result.RowsAffected()
}
