// Package finder orchestrates one search: fetch candidates, score each
// one, filter by mode, merge survivors into the cache and report the
// delta.
package finder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"safetube/internal/errs"
	"safetube/internal/models"
	"safetube/shared/ai"
	"safetube/shared/storage"
)

// Result count bounds. Requests outside the range are clamped, not
// rejected.
const (
	MinResults = 5
	MaxResults = 50
)

// Source fetches candidate videos for a query. Implementations may
// return fewer than limit candidates.
type Source interface {
	FetchCandidates(ctx context.Context, query string, platform models.Platform, limit int) ([]models.Video, error)
}

// Options tunes a Finder. Zero values mean no duration bounds, default
// platform/mode fallbacks of balanced/youtube and a scoring concurrency
// of 4.
type Options struct {
	DefaultPlatform    models.Platform
	DefaultFilterMode  models.FilterMode
	MinDuration        time.Duration
	MaxDuration        time.Duration
	ScoringConcurrency int
}

// Finder runs searches against an explicit set of collaborators chosen
// once at startup. It never re-detects backends at call time.
type Finder struct {
	source Source
	scorer ai.Scorer
	store  *storage.Store
	opts   Options
}

func New(source Source, scorer ai.Scorer, store *storage.Store, opts Options) *Finder {
	if opts.DefaultPlatform == "" {
		opts.DefaultPlatform = models.PlatformYouTube
	}
	if opts.DefaultFilterMode == "" {
		opts.DefaultFilterMode = models.FilterBalanced
	}
	if opts.ScoringConcurrency <= 0 {
		opts.ScoringConcurrency = 4
	}
	return &Finder{
		source: source,
		scorer: scorer,
		store:  store,
		opts:   opts,
	}
}

// Store exposes the cache/favorites store the finder merges into.
func (f *Finder) Store() *storage.Store {
	return f.store
}

// Search runs the full pipeline for one query. An empty result is a
// valid outcome, distinct from an operational failure of the source,
// which is reported as an error wrapping errs.ErrOperational.
// Individual scoring failures are absorbed: the candidate is dropped
// and counted in the result.
func (f *Finder) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty: %w", errs.ErrValidation)
	}

	platform := req.Platform
	if platform == "" {
		platform = f.opts.DefaultPlatform
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("platform %q: %w", platform, errs.ErrValidation)
	}

	mode := req.FilterMode
	if mode == "" {
		mode = f.opts.DefaultFilterMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("filter mode %q: %w", mode, errs.ErrValidation)
	}

	maxResults := clampResults(req.MaxResults)

	searchStart := time.Now()
	candidates, err := f.source.FetchCandidates(ctx, query, platform, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching candidates for %q: %v", errs.ErrOperational, query, err)
	}
	searchDuration := time.Since(searchStart)

	candidates = f.filterDuration(candidates)
	log.Printf("Found %d candidates for %q", len(candidates), query)

	scoringStart := time.Now()
	scored, failures := f.scoreAll(ctx, candidates)
	scoringDuration := time.Since(scoringStart)

	kept, err := ApplyFilter(scored, mode)
	if err != nil {
		return nil, err
	}

	added, err := f.store.MergeVideos(kept)
	if err != nil {
		return nil, fmt.Errorf("failed to merge search results: %w", err)
	}

	entry := &models.SearchHistoryEntry{
		Query:        query,
		Platform:     platform,
		FilterMode:   mode,
		ResultsCount: len(added),
	}
	if err := f.store.AppendSearch(entry); err != nil {
		// History is an audit trail; losing one entry should not fail
		// an otherwise successful search.
		log.Printf("Warning: Failed to record search history: %v", err)
	}

	log.Printf("Search %q complete: %d candidates, %d scored, %d kept, %d new, %d scoring failures",
		query, len(candidates), len(scored), len(kept), len(added), failures)

	return &models.SearchResult{
		AddedVideos:     added,
		TotalFound:      len(kept),
		SearchDuration:  searchDuration,
		ScoringDuration: scoringDuration,
		ScoringFailures: failures,
	}, nil
}

func clampResults(n int) int {
	if n == 0 {
		return 10
	}
	if n < MinResults {
		return MinResults
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}

// filterDuration drops candidates outside the configured duration
// bounds before any scoring spend. Candidates with unknown duration
// pass through.
func (f *Finder) filterDuration(candidates []models.Video) []models.Video {
	if f.opts.MinDuration == 0 && f.opts.MaxDuration == 0 {
		return candidates
	}
	kept := candidates[:0:0]
	for _, v := range candidates {
		if v.DurationSeconds <= 0 {
			kept = append(kept, v)
			continue
		}
		d := time.Duration(v.DurationSeconds) * time.Second
		if f.opts.MinDuration > 0 && d < f.opts.MinDuration {
			continue
		}
		if f.opts.MaxDuration > 0 && d > f.opts.MaxDuration {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

// scoreAll scores candidates concurrently but collects results back
// into the original candidate order, which the filter's stable
// tie-break depends on. Failed candidates are dropped and counted.
func (f *Finder) scoreAll(ctx context.Context, candidates []models.Video) ([]models.Video, int) {
	scores := make([]*models.Score, len(candidates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, f.opts.ScoringConcurrency)

	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			score, err := f.scorer.Score(ctx, &candidates[i])
			if err != nil {
				log.Printf("Warning: Failed to score video %s (%s): %v",
					candidates[i].ID, candidates[i].Title, err)
				return
			}
			scores[i] = score
		}(i)
	}
	wg.Wait()

	scored := make([]models.Video, 0, len(candidates))
	failures := 0
	for i, v := range candidates {
		if scores[i] == nil {
			failures++
			continue
		}
		v.Score = scores[i]
		scored = append(scored, v)
	}
	return scored, failures
}
