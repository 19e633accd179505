package storage

import (
	"fmt"
	"time"

	"safetube/internal/errs"
	"safetube/internal/models"
)

// AddFavorite saves a reference to a cached video. The video must be
// resolvable at call time; later cache eviction is tolerated. Nothing
// stops the same video from being favorited twice -- duplicates are
// permitted, matching the historical behavior.
func (s *Store) AddFavorite(videoID, notes string) (*models.FavoriteEntry, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video id is required: %w", errs.ErrValidation)
	}
	if len(notes) > models.MaxNoteLength {
		return nil, fmt.Errorf("notes exceed %d characters: %w", models.MaxNoteLength, errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM videos WHERE id = ?`, videoID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to resolve video %s: %w", videoID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("video %s is not cached: %w", videoID, errs.ErrNotFound)
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.Exec(
		`INSERT INTO favorites (video_id, user_notes, created_at) VALUES (?, ?, ?)`,
		videoID, notes, now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert favorite: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite id: %w", err)
	}

	return &models.FavoriteEntry{
		ID:        id,
		VideoID:   videoID,
		UserNotes: notes,
		CreatedAt: now,
	}, nil
}

// RemoveFavorite deletes one favorite and reports whether it existed.
func (s *Store) RemoveFavorite(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdateFavoriteNotes replaces the user note of an existing favorite.
func (s *Store) UpdateFavoriteNotes(id int64, notes string) (*models.FavoriteEntry, error) {
	if len(notes) > models.MaxNoteLength {
		return nil, fmt.Errorf("notes exceed %d characters: %w", models.MaxNoteLength, errs.ErrValidation)
	}

	result, err := s.db.Exec(`UPDATE favorites SET user_notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update favorite %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("favorite %d: %w", id, errs.ErrNotFound)
	}

	entry := &models.FavoriteEntry{ID: id}
	var createdAt int64
	err = s.db.QueryRow(
		`SELECT video_id, user_notes, created_at FROM favorites WHERE id = ?`, id,
	).Scan(&entry.VideoID, &entry.UserNotes, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back favorite %d: %w", id, err)
	}
	entry.CreatedAt = unixToTime(createdAt)
	return entry, nil
}

// Favorites returns all favorites, newest first. Each entry carries its
// cached video when still resolvable; a favorite whose video has been
// evicted comes back with a nil Video rather than failing.
func (s *Store) Favorites() ([]models.FavoriteEntry, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.video_id, f.user_notes, f.created_at, v.id
		FROM favorites f
		LEFT JOIN videos v ON v.id = f.video_id
		ORDER BY f.created_at DESC, f.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var entries []models.FavoriteEntry
	var resolvable []int // indexes into entries that have a cached video
	for rows.Next() {
		var e models.FavoriteEntry
		var createdAt int64
		var videoID *string
		if err := rows.Scan(&e.ID, &e.VideoID, &e.UserNotes, &createdAt, &videoID); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		e.CreatedAt = unixToTime(createdAt)
		if videoID != nil {
			resolvable = append(resolvable, len(entries))
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, i := range resolvable {
		v, err := s.GetVideo(entries[i].VideoID)
		if err != nil {
			continue // evicted between queries; degrade to unknown video
		}
		entries[i].Video = v
	}

	return entries, nil
}
