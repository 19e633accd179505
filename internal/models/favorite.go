package models

import "time"

// MaxNoteLength caps the user note attached to a favorite.
const MaxNoteLength = 500

// FavoriteEntry is a user's saved reference to a cached video. The
// reference is weak: clearing the cache does not remove favorites, so
// Video is nil when the referenced video is no longer cached.
type FavoriteEntry struct {
	ID        int64     `json:"id"`
	VideoID   string    `json:"video_id"`
	UserNotes string    `json:"user_notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Video     *Video    `json:"video,omitempty"`
}

// SearchHistoryEntry is an append-only audit record of one search call.
type SearchHistoryEntry struct {
	ID           string     `json:"id"`
	Query        string     `json:"query"`
	Platform     Platform   `json:"platform"`
	FilterMode   FilterMode `json:"filter_mode"`
	ResultsCount int        `json:"results_count"`
	CreatedAt    time.Time  `json:"created_at"`
}
