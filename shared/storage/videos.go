package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"safetube/internal/errs"
	"safetube/internal/models"
)

const videoColumns = `id, title, description, thumbnail_url, channel_title,
	duration_seconds, published_at, view_count, like_count,
	education_score, safety_score, overall_score, age_appropriate,
	reasoning, recommended_age, cached_at`

// MergeVideos inserts the videos that are not yet cached and returns
// them, in input order, with CachedAt stamped. Already-known ids keep
// their stored record untouched (first-write-wins): scores a user has
// already seen are never silently altered by a later re-search. A video
// without an id is skipped with a logged validation error; the rest of
// the batch proceeds.
func (s *Store) MergeVideos(videos []models.Video) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	var added []models.Video

	for _, v := range videos {
		if v.ID == "" {
			log.Printf("Skipping video %q: missing id (%v)", v.Title, errs.ErrValidation)
			continue
		}
		v.CachedAt = now

		var eduScore, safetyScore, overallScore sql.NullFloat64
		var ageAppropriate sql.NullInt64
		var reasoning, recommendedAge sql.NullString
		if v.Score != nil {
			eduScore = sql.NullFloat64{Float64: v.Score.Education, Valid: true}
			safetyScore = sql.NullFloat64{Float64: v.Score.Safety, Valid: true}
			overallScore = sql.NullFloat64{Float64: v.Score.Overall, Valid: true}
			ageAppropriate = sql.NullInt64{Int64: int64(boolToInt(v.Score.AgeAppropriate)), Valid: true}
			reasoning = sql.NullString{String: v.Score.Reasoning, Valid: true}
			recommendedAge = sql.NullString{String: v.Score.RecommendedAge, Valid: true}
		}

		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO videos (`+videoColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Title, v.Description, v.ThumbnailURL, v.ChannelTitle,
			v.DurationSeconds, timeToUnix(v.PublishedAt), v.ViewCount, v.LikeCount,
			eduScore, safetyScore, overallScore, ageAppropriate,
			reasoning, recommendedAge, timeToUnix(v.CachedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert video %s: %w", v.ID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check insert result for video %s: %w", v.ID, err)
		}
		if rows > 0 {
			added = append(added, v)
		}
	}

	return added, nil
}

// Videos returns all cached videos in insertion order.
func (s *Store) Videos() ([]models.Video, error) {
	rows, err := s.db.Query(`SELECT ` + videoColumns + ` FROM videos ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *v)
	}

	return videos, rows.Err()
}

// GetVideo returns the cached video with the given id, or ErrNotFound.
func (s *Store) GetVideo(id string) (*models.Video, error) {
	row := s.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video %s: %w", id, err)
	}
	return v, nil
}

// RemoveVideo deletes one cached video and reports whether it existed.
// Removing an unknown id is not an error.
func (s *Store) RemoveVideo(id string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove video %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ClearVideos empties the video cache. Favorites keep their video_id
// references; those ids simply become unresolvable.
func (s *Store) ClearVideos() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM videos`); err != nil {
		return fmt.Errorf("failed to clear video cache: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	var publishedAt, cachedAt int64
	var eduScore, safetyScore, overallScore sql.NullFloat64
	var ageAppropriate sql.NullInt64
	var reasoning, recommendedAge sql.NullString

	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.ThumbnailURL, &v.ChannelTitle,
		&v.DurationSeconds, &publishedAt, &v.ViewCount, &v.LikeCount,
		&eduScore, &safetyScore, &overallScore, &ageAppropriate,
		&reasoning, &recommendedAge, &cachedAt,
	)
	if err != nil {
		return nil, err
	}

	v.PublishedAt = unixToTime(publishedAt)
	v.CachedAt = unixToTime(cachedAt)

	// overall_score doubles as the scored marker: score columns are
	// written all together or not at all.
	if overallScore.Valid {
		v.Score = &models.Score{
			Education:      eduScore.Float64,
			Safety:         safetyScore.Float64,
			Overall:        overallScore.Float64,
			AgeAppropriate: intToBool(int(ageAppropriate.Int64)),
			Reasoning:      reasoning.String,
			RecommendedAge: recommendedAge.String,
		}
	}

	return &v, nil
}
