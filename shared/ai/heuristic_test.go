package ai

import (
	"context"
	"math"
	"testing"

	"safetube/internal/models"
)

func heuristicScore(t *testing.T, title, description string) *models.Score {
	t.Helper()
	score, err := NewHeuristicScorer().Score(context.Background(), &models.Video{
		ID:          "test",
		Title:       title,
		Description: description,
	})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	return score
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHeuristicScorerBaseline(t *testing.T) {
	score := heuristicScore(t, "Plain video", "nothing notable here")

	if !almostEqual(score.Education, 0.5) {
		t.Errorf("baseline education = %f, want 0.5", score.Education)
	}
	if !almostEqual(score.Safety, 0.85) {
		t.Errorf("baseline safety = %f, want 0.85", score.Safety)
	}
	if !score.AgeAppropriate {
		t.Error("baseline content should be age appropriate")
	}
	// overall = 0.5*0.4 + 0.85*0.4 + 0.2
	if !almostEqual(score.Overall, 0.74) {
		t.Errorf("baseline overall = %f, want 0.74", score.Overall)
	}
}

func TestHeuristicScorerEducationKeywords(t *testing.T) {
	tests := []struct {
		title string
		want  float64
	}{
		{"Math for toddlers", 0.8},
		{"Science experiments", 0.75},
		{"English alphabet", 0.7},
		{"Learn colors", 0.6},
		{"Learn math and science", 1.0}, // 0.5+0.1+0.3+0.25 clamped
	}

	for _, tc := range tests {
		score := heuristicScore(t, tc.title, "")
		if !almostEqual(score.Education, tc.want) {
			t.Errorf("education for %q = %f, want %f", tc.title, score.Education, tc.want)
		}
	}
}

func TestHeuristicScorerSafetyKeywords(t *testing.T) {
	score := heuristicScore(t, "Scary stories", "")
	if !almostEqual(score.Safety, 0.45) {
		t.Errorf("scary safety = %f, want 0.45", score.Safety)
	}
	if score.AgeAppropriate {
		t.Error("safety below 0.7 should not be age appropriate")
	}

	score = heuristicScore(t, "Songs for kids", "safe and fun")
	if !almostEqual(score.Safety, 1.0) {
		t.Errorf("kids safety = %f, want 1.0", score.Safety)
	}
}

func TestHeuristicScorerAdultContentFlag(t *testing.T) {
	score := heuristicScore(t, "Adult learning course", "")
	if score.AgeAppropriate {
		t.Error("adult keyword must flag content as not age appropriate")
	}
}

func TestHeuristicScorerDeterministic(t *testing.T) {
	first := heuristicScore(t, "Learn math with kids songs", "safe and healthy fun")
	for i := 0; i < 5; i++ {
		again := heuristicScore(t, "Learn math with kids songs", "safe and healthy fun")
		if *first != *again {
			t.Fatalf("scores differ between runs: %+v vs %+v", first, again)
		}
	}
}

func TestHeuristicScorerNilVideo(t *testing.T) {
	if _, err := NewHeuristicScorer().Score(context.Background(), nil); err == nil {
		t.Error("expected error for nil video")
	}
}
