// Package ai evaluates videos for educational value, safety and age
// appropriateness. The Gemini-backed Analyzer is the production scorer;
// the HeuristicScorer is a deterministic offline stand-in.
package ai

import (
	"context"

	"safetube/internal/models"
)

// Scorer produces normalized quality signals for one video based on its
// metadata. Implementations may be called concurrently; a per-video
// failure is reported through the error and never aborts the batch on
// the caller's side.
type Scorer interface {
	Score(ctx context.Context, video *models.Video) (*models.Score, error)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// recommendAge maps a score to the age band shown to parents.
func recommendAge(s *models.Score) string {
	switch {
	case s.Overall >= 0.8 && s.Safety >= 0.9:
		return "3-6"
	case s.Overall >= 0.6:
		return "4-7"
	default:
		return "parental judgment advised"
	}
}
