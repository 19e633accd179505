// Package youtube fetches candidate videos through the YouTube Data API
// v3. Searches always run with strict safe search; the youtube_kids
// platform additionally keeps only videos flagged made-for-kids.
package youtube

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"safetube/internal/models"
	"safetube/shared/config"
)

type Client struct {
	service *youtube.Service
}

// NewClient builds a Data API client. An API key is preferred; when
// only an OAuth client is configured, the device authorization flow is
// used so the search quota is drawn from the user's own project.
func NewClient(cfg *config.YouTubeConfig) (*Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.ClientID != "":
		httpClient, err := oauthHTTPClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to set up OAuth client: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	default:
		return nil, fmt.Errorf("YouTube client needs an API key or an OAuth client id")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

func (c *Client) FetchCandidates(ctx context.Context, query string, platform models.Platform, limit int) ([]models.Video, error) {
	// Over-fetch for the kids platform since made-for-kids filtering
	// happens after the search call.
	searchLimit := int64(limit)
	if platform == models.PlatformYouTubeKids {
		searchLimit *= 2
	}
	if searchLimit > 50 {
		searchLimit = 50
	}

	searchCall := c.service.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query).
		Type("video").
		SafeSearch("strict").
		MaxResults(searchLimit)

	searchResponse, err := searchCall.Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var ids []string
	for _, item := range searchResponse.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []models.Video{}, nil
	}

	videosCall := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics", "status"}).
		Context(ctx).
		Id(strings.Join(ids, ","))

	videosResponse, err := videosCall.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	byID := make(map[string]*youtube.Video, len(videosResponse.Items))
	for _, item := range videosResponse.Items {
		byID[item.Id] = item
	}

	// Walk the search result ids so discovery order (relevance order)
	// is preserved for the filter's stable tie-break.
	var videos []models.Video
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			continue
		}
		if platform == models.PlatformYouTubeKids {
			if item.Status == nil || !item.Status.MadeForKids {
				continue
			}
		}

		video := models.Video{
			ID:           item.Id,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
		}
		if item.ContentDetails != nil {
			video.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
			video.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
		}
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
		if item.Statistics != nil {
			video.ViewCount = int64(item.Statistics.ViewCount)
			video.LikeCount = int64(item.Statistics.LikeCount)
		}

		videos = append(videos, video)
		if len(videos) >= limit {
			break
		}
	}

	log.Printf("Retrieved %d videos for query %q", len(videos), query)
	return videos, nil
}

var iso8601Duration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds converts an ISO 8601 duration such as "PT2H15M30S"
// to seconds. Unparseable input yields 0, which downstream treats as
// unknown duration.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := iso8601Duration.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int
	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			totalSeconds += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			totalSeconds += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			totalSeconds += seconds
		}
	}
	return totalSeconds
}
