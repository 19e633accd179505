package finder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"safetube/internal/models"
)

// SampleSource generates deterministic candidates from templates so the
// pipeline can run without network access or API keys. The candidate id
// is derived from query and position, which makes re-searches hit the
// cache the way a real source returning stable video ids would.
type SampleSource struct{}

func NewSampleSource() *SampleSource {
	return &SampleSource{}
}

type sampleTemplate struct {
	title           string
	channel         string
	description     string
	durationSeconds int
}

var sampleTemplates = []sampleTemplate{
	{
		title:           "Math for Kids - %s",
		channel:         "Little Learners",
		description:     "Fun animations and games that help children learn math with %s",
		durationSeconds: 420,
	},
	{
		title:           "English ABC - %s",
		channel:         "Baby English",
		description:     "Lively english lessons so kids can learn %s words with ease",
		durationSeconds: 300,
	},
	{
		title:           "Science Experiments - Exploring %s",
		channel:         "Science Start",
		description:     "Simple and safe science experiments exploring the ideas behind %s",
		durationSeconds: 480,
	},
	{
		title:           "Arts and Crafts - %s Projects",
		channel:         "Creative Workshop",
		description:     "Hands-on %s crafts that build creativity for children",
		durationSeconds: 600,
	},
	{
		title:           "Songs and Rhymes - %s",
		channel:         "Music House",
		description:     "Cheerful songs and rhymes around %s for kids to sing along",
		durationSeconds: 240,
	},
}

func (s *SampleSource) FetchCandidates(_ context.Context, query string, _ models.Platform, limit int) ([]models.Video, error) {
	slug := strings.ToLower(strings.Join(strings.Fields(query), "-"))

	videos := make([]models.Video, 0, limit)
	for i := 0; i < limit; i++ {
		tpl := sampleTemplates[i%len(sampleTemplates)]
		videos = append(videos, models.Video{
			ID:              fmt.Sprintf("sample-%s-%d", slug, i),
			Title:           fmt.Sprintf(tpl.title, query),
			Description:     fmt.Sprintf(tpl.description, query),
			ChannelTitle:    tpl.channel,
			DurationSeconds: tpl.durationSeconds + 30*(i/len(sampleTemplates)),
			PublishedAt:     time.Now().UTC().AddDate(0, 0, -i),
			ViewCount:       int64(5000 + 1000*i),
			LikeCount:       int64(100 + 50*i),
		})
	}
	return videos, nil
}
