package ai

import (
	"context"
	"fmt"
	"strings"

	"safetube/internal/models"
)

// HeuristicScorer scores videos from title and description keywords. It
// needs no network access and always produces the same score for the
// same input, which makes it suitable for offline runs and tests.
type HeuristicScorer struct{}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

var educationKeywords = map[string]float64{
	"math":      0.30,
	"science":   0.25,
	"english":   0.20,
	"education": 0.15,
	"learn":     0.10,
}

func (h *HeuristicScorer) Score(_ context.Context, video *models.Video) (*models.Score, error) {
	if video == nil {
		return nil, fmt.Errorf("video cannot be nil")
	}
	content := strings.ToLower(video.Title + " " + video.Description)

	education := 0.5
	for keyword, boost := range educationKeywords {
		if strings.Contains(content, keyword) {
			education += boost
		}
	}

	safety := 0.85
	if strings.Contains(content, "violence") || strings.Contains(content, "scary") {
		safety -= 0.4
	}
	if strings.Contains(content, "kids") || strings.Contains(content, "children") {
		safety += 0.1
	}
	if strings.Contains(content, "safe") || strings.Contains(content, "healthy") {
		safety += 0.05
	}

	education = clamp01(education)
	safety = clamp01(safety)
	ageAppropriate := safety >= 0.7 && !strings.Contains(content, "adult")

	overall := education*0.4 + safety*0.4
	if ageAppropriate {
		overall += 0.2
	}

	score := &models.Score{
		Education:      education,
		Safety:         safety,
		Overall:        clamp01(overall),
		AgeAppropriate: ageAppropriate,
		Reasoning:      h.reasoning(education, safety, ageAppropriate),
	}
	score.RecommendedAge = recommendAge(score)
	return score, nil
}

func (h *HeuristicScorer) reasoning(education, safety float64, ageAppropriate bool) string {
	var reasons []string
	switch {
	case education >= 0.8:
		reasons = append(reasons, "high educational value")
	case education >= 0.6:
		reasons = append(reasons, "some educational value")
	}
	switch {
	case safety >= 0.9:
		reasons = append(reasons, "very safe content")
	case safety >= 0.7:
		reasons = append(reasons, "reasonably safe content")
	}
	if ageAppropriate {
		reasons = append(reasons, "age-appropriate")
	}
	if len(reasons) == 0 {
		return "average content quality (keyword heuristic)"
	}
	return strings.Join(reasons, ", ") + " (keyword heuristic)"
}
