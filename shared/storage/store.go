// Package storage persists the video cache, favorites and search
// history in a single SQLite database.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite database. The video cache exclusively owns
// video records; favorites hold a weak reference by video id, so
// clearing the cache never cascades into favorites.
type Store struct {
	db *sql.DB

	// Serializes merge and favorite creation so that delta reporting
	// and id allocation never interleave. Reads go straight to SQLite.
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database, which is what the tests do.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	// favorites.id is AUTOINCREMENT on purpose: ids must be monotone
	// and never reused, even after a row is deleted.
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		thumbnail_url TEXT,
		channel_title TEXT,
		duration_seconds INTEGER,
		published_at INTEGER,
		view_count INTEGER,
		like_count INTEGER,
		education_score REAL,
		safety_score REAL,
		overall_score REAL,
		age_appropriate INTEGER,
		reasoning TEXT,
		recommended_age TEXT,
		cached_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT NOT NULL,
		user_notes TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS search_history (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		platform TEXT NOT NULL,
		filter_mode TEXT NOT NULL,
		results_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_video_id ON favorites(video_id);
	CREATE INDEX IF NOT EXISTS idx_history_created_at ON search_history(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Helper functions for boolean<->int conversion (SQLite has no BOOLEAN)
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func unixToTime(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

func timeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
