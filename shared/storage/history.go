package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"safetube/internal/models"
)

// historyCap bounds the retained search history. Oldest entries are
// pruned on every append.
const historyCap = 50

// AppendSearch records one search call. Entries are never mutated; the
// retained list is a bounded ring, newest first.
func (s *Store) AppendSearch(entry *models.SearchHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := s.db.Exec(
		`INSERT INTO search_history (id, query, platform, filter_mode, results_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, string(entry.Platform), string(entry.FilterMode),
		entry.ResultsCount, entry.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append search history: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM search_history WHERE id NOT IN (
			SELECT id FROM search_history
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)`, historyCap)
	if err != nil {
		return fmt.Errorf("failed to prune search history: %w", err)
	}
	return nil
}

// SearchHistory returns up to limit entries, newest first. A limit of 0
// or less returns everything retained.
func (s *Store) SearchHistory(limit int) ([]models.SearchHistoryEntry, error) {
	query := `SELECT id, query, platform, filter_mode, results_count, created_at
		FROM search_history ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchHistoryEntry
	for rows.Next() {
		var e models.SearchHistoryEntry
		var platform, mode string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Query, &platform, &mode, &e.ResultsCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history entry: %w", err)
		}
		e.Platform = models.Platform(platform)
		e.FilterMode = models.FilterMode(mode)
		e.CreatedAt = unixToTime(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
