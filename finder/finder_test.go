package finder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetube/internal/errs"
	"safetube/internal/models"
	"safetube/shared/storage"
)

// stubSource returns a fixed candidate list, or fails.
type stubSource struct {
	candidates []models.Video
	err        error
	lastLimit  int
}

func (s *stubSource) FetchCandidates(_ context.Context, _ string, _ models.Platform, limit int) ([]models.Video, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

// stubScorer returns canned scores by video id. Missing ids fail.
type stubScorer struct {
	scores map[string]*models.Score
	delay  map[string]time.Duration
}

func (s *stubScorer) Score(_ context.Context, video *models.Video) (*models.Score, error) {
	if d, ok := s.delay[video.ID]; ok {
		time.Sleep(d)
	}
	score, ok := s.scores[video.ID]
	if !ok {
		return nil, fmt.Errorf("no score for %s", video.ID)
	}
	return score, nil
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func candidate(id string) models.Video {
	return models.Video{ID: id, Title: "Video " + id, ChannelTitle: "Test Channel"}
}

func balancedScore(overall float64) *models.Score {
	return &models.Score{
		Education:      overall,
		Safety:         overall,
		Overall:        overall,
		AgeAppropriate: true,
		Reasoning:      "stub",
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	f := New(&stubSource{}, &stubScorer{}, testStore(t), Options{})

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := f.Search(context.Background(), models.SearchRequest{Query: query})
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValidation)
	}
}

func TestSearchInvalidPlatformAndMode(t *testing.T) {
	f := New(&stubSource{}, &stubScorer{}, testStore(t), Options{})

	_, err := f.Search(context.Background(), models.SearchRequest{
		Query:    "dinosaurs",
		Platform: models.Platform("vimeo"),
	})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.Search(context.Background(), models.SearchRequest{
		Query:      "dinosaurs",
		FilterMode: models.FilterMode("lenient"),
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSearchClampsMaxResults(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{0, 10},
		{1, 5},
		{5, 5},
		{25, 25},
		{50, 50},
		{200, 50},
	}

	for _, tc := range tests {
		source := &stubSource{}
		f := New(source, &stubScorer{}, testStore(t), Options{})

		_, err := f.Search(context.Background(), models.SearchRequest{
			Query:      "dinosaurs",
			MaxResults: tc.requested,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, source.lastLimit, "requested %d", tc.requested)
	}
}

func TestSearchFiltersAndCaches(t *testing.T) {
	source := &stubSource{candidates: []models.Video{
		candidate("a"), candidate("b"), candidate("c"),
	}}
	scorer := &stubScorer{scores: map[string]*models.Score{
		"a": balancedScore(0.9),
		"b": balancedScore(0.3),
		"c": balancedScore(0.7),
	}}
	store := testStore(t)
	f := New(source, scorer, store, Options{})

	result, err := f.Search(context.Background(), models.SearchRequest{
		Query:      "counting songs",
		FilterMode: models.FilterBalanced,
	})
	require.NoError(t, err)

	// b misses the balanced threshold; a and c are kept, scored order.
	assert.Equal(t, []string{"a", "c"}, videoIDs(result.AddedVideos))
	assert.Equal(t, 2, result.TotalFound)
	assert.Equal(t, 0, result.ScoringFailures)

	cached, err := store.Videos()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, videoIDs(cached))
}

func TestSearchSecondRunReturnsOnlyNewVideos(t *testing.T) {
	source := &stubSource{candidates: []models.Video{candidate("a"), candidate("b")}}
	scorer := &stubScorer{scores: map[string]*models.Score{
		"a": balancedScore(0.9),
		"b": balancedScore(0.8),
	}}
	store := testStore(t)
	f := New(source, scorer, store, Options{})

	first, err := f.Search(context.Background(), models.SearchRequest{Query: "abc songs"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, videoIDs(first.AddedVideos))

	source.candidates = []models.Video{candidate("a"), candidate("c")}
	scorer.scores["c"] = balancedScore(0.7)

	second, err := f.Search(context.Background(), models.SearchRequest{Query: "abc songs"})
	require.NoError(t, err)

	// a is already cached, only c is new. TotalFound still counts both.
	assert.Equal(t, []string{"c"}, videoIDs(second.AddedVideos))
	assert.Equal(t, 2, second.TotalFound)
}

func TestSearchScoringFailuresAreAbsorbed(t *testing.T) {
	source := &stubSource{candidates: []models.Video{
		candidate("a"), candidate("broken"), candidate("c"),
	}}
	scorer := &stubScorer{scores: map[string]*models.Score{
		"a": balancedScore(0.9),
		"c": balancedScore(0.8),
	}}
	f := New(source, scorer, testStore(t), Options{})

	result, err := f.Search(context.Background(), models.SearchRequest{Query: "puzzles"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, videoIDs(result.AddedVideos))
	assert.Equal(t, 1, result.ScoringFailures)
}

func TestSearchAllScoringFailedIsEmptySuccess(t *testing.T) {
	source := &stubSource{candidates: []models.Video{candidate("a"), candidate("b")}}
	scorer := &stubScorer{scores: map[string]*models.Score{}}
	f := New(source, scorer, testStore(t), Options{})

	result, err := f.Search(context.Background(), models.SearchRequest{Query: "puzzles"})
	require.NoError(t, err)

	assert.Empty(t, result.AddedVideos)
	assert.Equal(t, 0, result.TotalFound)
	assert.Equal(t, 2, result.ScoringFailures)
}

func TestSearchSourceFailureIsOperational(t *testing.T) {
	source := &stubSource{err: errors.New("quota exceeded")}
	f := New(source, &stubScorer{}, testStore(t), Options{})

	_, err := f.Search(context.Background(), models.SearchRequest{Query: "puzzles"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrOperational)
	assert.NotErrorIs(t, err, errs.ErrValidation)
}

func TestSearchRecordsHistory(t *testing.T) {
	source := &stubSource{candidates: []models.Video{candidate("a"), candidate("b")}}
	scorer := &stubScorer{scores: map[string]*models.Score{
		"a": balancedScore(0.9),
		"b": balancedScore(0.3),
	}}
	store := testStore(t)
	f := New(source, scorer, store, Options{})

	_, err := f.Search(context.Background(), models.SearchRequest{
		Query:      "counting songs",
		FilterMode: models.FilterBalanced,
		Platform:   models.PlatformYouTube,
	})
	require.NoError(t, err)

	entries, err := store.SearchHistory(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "counting songs", entries[0].Query)
	assert.Equal(t, models.PlatformYouTube, entries[0].Platform)
	assert.Equal(t, models.FilterBalanced, entries[0].FilterMode)
	// resultsCount counts newly cached videos, not candidates.
	assert.Equal(t, 1, entries[0].ResultsCount)
}

func TestSearchConcurrentScoringKeepsCandidateOrder(t *testing.T) {
	var candidates []models.Video
	scores := map[string]*models.Score{}
	delays := map[string]time.Duration{}
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("v%d", i)
		candidates = append(candidates, candidate(id))
		scores[id] = balancedScore(0.8) // identical scores, order falls to stability
		delays[id] = time.Duration(8-i) * 5 * time.Millisecond
	}

	source := &stubSource{candidates: candidates}
	scorer := &stubScorer{scores: scores, delay: delays}
	f := New(source, scorer, testStore(t), Options{ScoringConcurrency: 4})

	result, err := f.Search(context.Background(), models.SearchRequest{Query: "shapes"})
	require.NoError(t, err)

	// Earlier candidates finish scoring last, yet the result keeps the
	// discovery order.
	assert.Equal(t, videoIDs(candidates), videoIDs(result.AddedVideos))
}

func TestSearchDurationPreFilter(t *testing.T) {
	long := candidate("long")
	long.DurationSeconds = 3600
	short := candidate("short")
	short.DurationSeconds = 30
	ok := candidate("ok")
	ok.DurationSeconds = 300
	unknown := candidate("unknown") // duration 0 passes through

	source := &stubSource{candidates: []models.Video{long, short, ok, unknown}}
	scorer := &stubScorer{scores: map[string]*models.Score{
		"long":    balancedScore(0.9),
		"short":   balancedScore(0.9),
		"ok":      balancedScore(0.9),
		"unknown": balancedScore(0.9),
	}}
	f := New(source, scorer, testStore(t), Options{
		MinDuration: time.Minute,
		MaxDuration: 20 * time.Minute,
	})

	result, err := f.Search(context.Background(), models.SearchRequest{Query: "stories"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "unknown"}, videoIDs(result.AddedVideos))
}
