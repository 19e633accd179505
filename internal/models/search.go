package models

import "time"

// SearchRequest describes one search call. Zero values for Platform,
// FilterMode and MaxResults fall back to the caller's configured
// defaults before validation.
type SearchRequest struct {
	Query      string     `json:"query"`
	Platform   Platform   `json:"platform"`
	FilterMode FilterMode `json:"filter_mode"`
	MaxResults int        `json:"max_results"`
}

// SearchResult reports the outcome of one search call. AddedVideos is
// the delta: only videos that were not already cached, in the order
// they survived filtering. TotalFound counts everything that passed the
// filter, including already-cached videos.
type SearchResult struct {
	AddedVideos     []Video       `json:"added_videos"`
	TotalFound      int           `json:"total_found"`
	SearchDuration  time.Duration `json:"search_duration"`
	ScoringDuration time.Duration `json:"scoring_duration"`
	ScoringFailures int           `json:"scoring_failures,omitempty"`
}
