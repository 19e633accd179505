package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"safetube/finder"
	"safetube/finder/youtube"
	"safetube/internal/models"
	"safetube/shared/ai"
	"safetube/shared/config"
	"safetube/shared/email"
	"safetube/shared/storage"
	"safetube/watcher"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	app := &cli.App{
		Name:    "safetube",
		Usage:   "Find, score and cache kid-safe videos",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search for kid-safe videos and cache the new ones",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Filter mode: strict, balanced or educational",
					},
					&cli.StringFlag{
						Name:    "platform",
						Aliases: []string{"p"},
						Usage:   "Platform: youtube or youtube_kids",
					},
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"n"},
						Usage:   "Maximum results to fetch (clamped to 5-50)",
					},
				},
				Action: runSearch,
			},
			{
				Name:  "cache",
				Usage: "Inspect or modify the video cache",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List all cached videos",
						Action: cacheList,
					},
					{
						Name:      "remove",
						Usage:     "Remove one cached video",
						ArgsUsage: "<video-id>",
						Action:    cacheRemove,
					},
					{
						Name:   "clear",
						Usage:  "Empty the video cache (favorites are kept)",
						Action: cacheClear,
					},
				},
			},
			{
				Name:  "favorites",
				Usage: "Manage favorite videos",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Favorite a cached video",
						ArgsUsage: "<video-id>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "notes",
								Usage: "Optional note (max 500 characters)",
							},
						},
						Action: favoritesAdd,
					},
					{
						Name:      "remove",
						Usage:     "Remove a favorite",
						ArgsUsage: "<favorite-id>",
						Action:    favoritesRemove,
					},
					{
						Name:      "notes",
						Usage:     "Replace the note on a favorite",
						ArgsUsage: "<favorite-id> <notes>",
						Action:    favoritesNotes,
					},
					{
						Name:   "list",
						Usage:  "List favorites, newest first",
						Action: favoritesList,
					},
				},
			},
			{
				Name:  "history",
				Usage: "Show recent searches",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Value:   20,
						Usage:   "Maximum entries to return",
					},
				},
				Action: historyList,
			},
			{
				Name:  "watch",
				Usage: "Run the watched queries on a schedule and email a digest",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run all watched queries once and exit",
					},
					&cli.BoolFlag{
						Name:  "no-email",
						Usage: "Skip the digest email, only populate the cache",
					},
				},
				Action: runWatch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." && dir != "" && cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return storage.New(cfg.Storage.Path)
}

// buildFinder wires the source and scorer named by the config. The
// selection happens exactly once here; nothing downstream re-detects
// its environment.
func buildFinder(cfg *config.Config, store *storage.Store) (*finder.Finder, error) {
	var source finder.Source
	switch cfg.Source.Backend {
	case config.SourceSample:
		source = finder.NewSampleSource()
	default:
		client, err := youtube.NewClient(&cfg.Source.YouTube)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube client: %w", err)
		}
		source = client
	}

	var scorer ai.Scorer
	switch cfg.AI.Provider {
	case config.ScorerHeuristic:
		scorer = ai.NewHeuristicScorer()
	default:
		analyzer, err := ai.NewAnalyzer(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to create AI analyzer: %w", err)
		}
		scorer = analyzer
	}

	return finder.New(source, scorer, store, finder.Options{
		DefaultPlatform:    cfg.Search.DefaultPlatform,
		DefaultFilterMode:  cfg.Search.DefaultFilterMode,
		MinDuration:        time.Duration(cfg.Search.MinDurationMinutes) * time.Minute,
		MaxDuration:        time.Duration(cfg.Search.MaxDurationMinutes) * time.Minute,
		ScoringConcurrency: cfg.Search.ScoringConcurrency,
	}), nil
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func runSearch(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: safetube search <query>", ExitUsageError)
	}

	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	f, err := buildFinder(cfg, store)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	req := models.SearchRequest{
		Query:      c.Args().Get(0),
		Platform:   models.Platform(c.String("platform")),
		FilterMode: models.FilterMode(c.String("mode")),
		MaxResults: c.Int("max"),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := f.Search(ctx, req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Search failed: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"added":            result.AddedVideos,
		"total_found":      result.TotalFound,
		"search_ms":        result.SearchDuration.Milliseconds(),
		"scoring_ms":       result.ScoringDuration.Milliseconds(),
		"scoring_failures": result.ScoringFailures,
	})
}

func cacheList(c *cli.Context) error {
	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	videos, err := store.Videos()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to list cache: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count":  len(videos),
		"videos": videos,
	})
}

func cacheRemove(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: safetube cache remove <video-id>", ExitUsageError)
	}

	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	removed, err := store.RemoveVideo(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to remove video: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"removed": removed,
	})
}

func cacheClear(c *cli.Context) error {
	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	if err := store.ClearVideos(); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to clear cache: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"success": true,
	})
}

func favoritesAdd(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: safetube favorites add <video-id>", ExitUsageError)
	}

	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	entry, err := store.AddFavorite(c.Args().Get(0), c.String("notes"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to add favorite: %v", err), ExitDataError)
	}

	return outputJSON(entry)
}

func favoritesRemove(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: safetube favorites remove <favorite-id>", ExitUsageError)
	}

	id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return cli.Exit("Invalid favorite ID", ExitUsageError)
	}

	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	removed, err := store.RemoveFavorite(id)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to remove favorite: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"removed": removed,
	})
}

func favoritesNotes(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("Usage: safetube favorites notes <favorite-id> <notes>", ExitUsageError)
	}

	id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
	if err != nil {
		return cli.Exit("Invalid favorite ID", ExitUsageError)
	}

	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	entry, err := store.UpdateFavoriteNotes(id, c.Args().Get(1))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update notes: %v", err), ExitDataError)
	}

	return outputJSON(entry)
}

func favoritesList(c *cli.Context) error {
	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	favorites, err := store.Favorites()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to list favorites: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count":     len(favorites),
		"favorites": favorites,
	})
}

func historyList(c *cli.Context) error {
	store, err := openStoreFromConfig()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	entries, err := store.SearchHistory(c.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load history: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count":   len(entries),
		"history": entries,
	})
}

func runWatch(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer store.Close()

	f, err := buildFinder(cfg, store)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	var sender watcher.DigestSender
	if !c.Bool("no-email") {
		if err := cfg.ValidateEmail(); err != nil {
			return cli.Exit(err.Error(), ExitDataError)
		}
		sender = email.NewSender(&cfg.Email)
	}

	w := watcher.New(cfg, f, sender)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if c.Bool("once") {
		fmt.Println("Running watched queries once...")
		if err := w.RunOnce(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("Run failed: %v", err), ExitDataError)
		}
		return nil
	}

	fmt.Println("Starting watcher...")
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return cli.Exit(fmt.Sprintf("Watcher failed: %v", err), ExitDataError)
	}
	return nil
}

// openStoreFromConfig is the shortcut for read/update commands that
// need the store but not the finder.
func openStoreFromConfig() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}
