package models

import (
	"fmt"
	"time"
)

// FilterMode selects how scored videos are filtered and ordered.
type FilterMode string

const (
	// FilterStrict keeps only videos with a very high safety score that
	// are flagged age-appropriate. Meant for the youngest children.
	FilterStrict FilterMode = "strict"
	// FilterBalanced keeps videos with a good overall score.
	FilterBalanced FilterMode = "balanced"
	// FilterEducational keeps videos with a high education score, even
	// at some entertainment cost.
	FilterEducational FilterMode = "educational"
)

func (m FilterMode) Valid() bool {
	switch m {
	case FilterStrict, FilterBalanced, FilterEducational:
		return true
	}
	return false
}

// ParseFilterMode returns the FilterMode for s, or an error listing the
// accepted values.
func ParseFilterMode(s string) (FilterMode, error) {
	m := FilterMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown filter mode %q (expected strict, balanced or educational)", s)
	}
	return m, nil
}

// Platform identifies the video source a search runs against.
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformYouTubeKids Platform = "youtube_kids"
)

func (p Platform) Valid() bool {
	return p == PlatformYouTube || p == PlatformYouTubeKids
}

// Score holds the AI evaluation of a video. Education, Safety and
// Overall are normalized to [0, 1]. A video carries at most one Score;
// cached videos are never re-scored.
type Score struct {
	Education      float64 `json:"education_score"`
	Safety         float64 `json:"safety_score"`
	Overall        float64 `json:"overall_score"`
	AgeAppropriate bool    `json:"age_appropriate"`
	Reasoning      string  `json:"reasoning,omitempty"`
	RecommendedAge string  `json:"recommended_age,omitempty"`
}

// Video represents one discovered video. Score is nil until the video
// has been evaluated; the filter rejects unscored input, so anything
// that reaches the cache through a search carries a Score.
type Video struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ChannelTitle    string    `json:"channel_title,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	ViewCount       int64     `json:"view_count,omitempty"`
	LikeCount       int64     `json:"like_count,omitempty"`
	Score           *Score    `json:"score,omitempty"`
	CachedAt        time.Time `json:"cached_at"`
}

// Scored reports whether the video has been evaluated.
func (v *Video) Scored() bool {
	return v.Score != nil
}
