package finder

import (
	"fmt"
	"sort"

	"safetube/internal/errs"
	"safetube/internal/models"
)

// Filter thresholds per mode. Strict gates on safety because for the
// youngest children safety is non-negotiable; educational lets subject
// matter dominate and assumes safety was pre-filtered upstream.
const (
	strictSafetyThreshold     = 0.90
	educationalScoreThreshold = 0.75
	balancedOverallThreshold  = 0.60
)

// ApplyFilter keeps and orders scored videos according to mode. The
// input slice is never mutated; ties beyond each mode's sort keys keep
// the original discovery order. Every video must already be scored.
func ApplyFilter(videos []models.Video, mode models.FilterMode) ([]models.Video, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("filter mode %q: %w", mode, errs.ErrValidation)
	}
	for i := range videos {
		if !videos[i].Scored() {
			return nil, fmt.Errorf("video %s: %w", videos[i].ID, errs.ErrUnscored)
		}
	}

	kept := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if keepVideo(v.Score, mode) {
			kept = append(kept, v)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return scoreLess(kept[i].Score, kept[j].Score, mode)
	})

	return kept, nil
}

func keepVideo(s *models.Score, mode models.FilterMode) bool {
	switch mode {
	case models.FilterStrict:
		return s.Safety >= strictSafetyThreshold && s.AgeAppropriate
	case models.FilterEducational:
		return s.Education >= educationalScoreThreshold
	default: // balanced
		return s.Overall >= balancedOverallThreshold
	}
}

// scoreLess orders descending on the mode's primary axis, breaking ties
// on the overall score. Equal keys are left to the stable sort.
func scoreLess(a, b *models.Score, mode models.FilterMode) bool {
	switch mode {
	case models.FilterStrict:
		if a.Safety != b.Safety {
			return a.Safety > b.Safety
		}
		return a.Overall > b.Overall
	case models.FilterEducational:
		if a.Education != b.Education {
			return a.Education > b.Education
		}
		return a.Overall > b.Overall
	default: // balanced
		return a.Overall > b.Overall
	}
}
