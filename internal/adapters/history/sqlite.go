// Package history reads the raw listening history used for batch rebuilds.
// The canonical source is a SQLite database of plays, one row per listen.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

const createListens = `
CREATE TABLE IF NOT EXISTS listens (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  artist TEXT NOT NULL,
  album TEXT,
  title TEXT,
  played_at INTEGER NOT NULL,
  duration INTEGER
);
CREATE INDEX IF NOT EXISTS idx_listens_played_at ON listens(played_at);
`

// SQLiteSource reads play events from a local SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(createListens); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating listens table: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Events returns every play in the database. Order is whatever the storage
// returns; the batch processor sorts before replaying.
func (s *SQLiteSource) Events(ctx context.Context) ([]model.PlayEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT artist, COALESCE(album, ''), COALESCE(title, ''), played_at, COALESCE(duration, 0) FROM listens")
	if err != nil {
		return nil, fmt.Errorf("querying plays: %w", err)
	}
	defer rows.Close()

	var events []model.PlayEvent
	for rows.Next() {
		var e model.PlayEvent
		if err := rows.Scan(&e.Artist, &e.Album, &e.Title, &e.Timestamp, &e.Duration); err != nil {
			return nil, fmt.Errorf("scanning play row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plays: %w", err)
	}
	return events, nil
}

// Append inserts plays, used by import tooling and tests.
func (s *SQLiteSource) Append(ctx context.Context, events []model.PlayEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO listens (artist, album, title, played_at, duration) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.Artist, e.Album, e.Title, e.Timestamp, e.Duration); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting play: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing insert: %w", err)
	}
	return nil
}

// Count returns the number of stored plays.
func (s *SQLiteSource) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listens").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting plays: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
