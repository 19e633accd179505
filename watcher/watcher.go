// Package watcher runs the configured watched queries on a schedule and
// mails a digest of newly discovered kid-safe videos.
package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"safetube/finder"
	"safetube/internal/models"
	"safetube/shared/config"
	"safetube/shared/email"
	"safetube/shared/monitoring"
)

// DigestSender is what the watcher needs from the email layer. Nil
// disables the digest (runs still populate the cache).
type DigestSender interface {
	SendDigest(digest *email.Digest) error
}

type Watcher struct {
	config  *config.Config
	finder  *finder.Finder
	sender  DigestSender
	monitor *monitoring.Monitor
	cron    *cron.Cron
}

func New(cfg *config.Config, f *finder.Finder, sender DigestSender) *Watcher {
	return &Watcher{
		config:  cfg,
		finder:  f,
		sender:  sender,
		monitor: monitoring.NewMonitor(),
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start runs the cron loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if len(w.config.Watcher.Queries) == 0 {
		return fmt.Errorf("no watched queries configured")
	}

	healthServer := monitoring.NewHealthServer(w.monitor, w.config.Monitoring.HealthPort)
	healthServer.Start()

	_, err := w.cron.AddFunc(w.config.Watcher.Schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			log.Printf("Error running watched queries: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	log.Printf("Watcher started with schedule %q for %d queries", w.config.Watcher.Schedule, len(w.config.Watcher.Queries))
	w.cron.Start()

	<-ctx.Done()
	log.Println("Watcher stopped")
	w.cron.Stop()
	return ctx.Err()
}

// RunOnce searches every watched query and mails a digest of the union
// of the deltas. A failing query is a partial failure; the run only
// fails outright when every query fails.
func (w *Watcher) RunOnce(ctx context.Context) error {
	startTime := time.Now()

	var newVideos []models.Video
	var queryErrors int

	for _, query := range w.config.Watcher.Queries {
		result, err := w.finder.Search(ctx, models.SearchRequest{
			Query:      query,
			Platform:   w.config.Search.DefaultPlatform,
			FilterMode: w.config.Search.DefaultFilterMode,
			MaxResults: w.config.Search.MaxResults,
		})
		if err != nil {
			log.Printf("Warning: Watched query %q failed: %v", query, err)
			queryErrors++
			continue
		}
		newVideos = append(newVideos, result.AddedVideos...)
	}

	duration := time.Since(startTime)

	if queryErrors == len(w.config.Watcher.Queries) {
		err := fmt.Errorf("all %d watched queries failed", queryErrors)
		w.monitor.RecordCriticalFailure(err, duration)
		return err
	}
	if queryErrors > 0 {
		w.monitor.RecordPartialFailure(fmt.Errorf("%d of %d watched queries failed", queryErrors, len(w.config.Watcher.Queries)), duration)
	}

	if len(newVideos) > 0 && w.sender != nil {
		digest := &email.Digest{
			Date:    time.Now(),
			Queries: w.config.Watcher.Queries,
			Videos:  newVideos,
		}
		if err := w.sender.SendDigest(digest); err != nil {
			w.monitor.RecordCriticalFailure(fmt.Errorf("failed to send digest: %w", err), duration)
			return fmt.Errorf("failed to send digest: %w", err)
		}
		log.Printf("Digest sent with %d new videos", len(newVideos))
	} else {
		log.Println("No new videos found, skipping digest")
	}

	w.monitor.RecordSuccess(
		fmt.Sprintf("%d queries ran, %d new videos", len(w.config.Watcher.Queries)-queryErrors, len(newVideos)),
		duration,
	)
	return nil
}
