package app

import (
	"context"
	"fmt"
	"time"

	"wanderpress/internal/config"
	"wanderpress/internal/feed"
	"wanderpress/internal/images"
	"wanderpress/internal/logger"
	"wanderpress/internal/metrics"
	"wanderpress/internal/publish"
	"wanderpress/internal/ratelimit"
	"wanderpress/internal/retry"
	"wanderpress/internal/rewrite"
)

// Stats summarizes one batch run.
type Stats struct {
	Candidates   int
	UsedFallback bool
	Persisted    int
	Skipped      int
	Failed       int
}

// Run executes one full ingestion batch: aggregate, rewrite, curate,
// persist. Only an unusable output directory aborts the run.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	feeds, err := feed.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		return fmt.Errorf("load feeds list: %w", err)
	}

	ctx := context.Background()
	policy := retry.Policy{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
		Timeout:     cfg.RequestTimeout,
	}
	limiter := ratelimit.NewServiceLimiter(cfg.MaxRewriteRequests, cfg.MaxImageRequests)

	gemini, err := rewrite.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("init gemini provider: %w", err)
	}
	defer gemini.Close()

	providers := []rewrite.Provider{gemini}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, rewrite.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}
	engine := rewrite.NewEngine(providers, policy, limiter, cfg.MaxPromptRunes, cfg.MinBodyRunes, cfg.RewriteCacheTTL)

	var store images.Store
	if cfg.LedgerDSN != "" {
		pg, err := images.NewPostgresStore(cfg.LedgerDSN)
		if err != nil {
			logger.Error("postgres ledger unavailable, falling back to file ledger", "error", err)
			store = images.NewFileStore(cfg.LedgerPath)
		} else {
			defer pg.Close()
			store = pg
		}
	} else {
		store = images.NewFileStore(cfg.LedgerPath)
	}

	var searcher images.Searcher
	if cfg.ImageAPIKey != "" {
		searcher = images.NewSearchClient(cfg.ImageAPIBaseURL, cfg.ImageAPIKey)
	}
	curator, err := images.NewCurator(store, searcher, policy, limiter, cfg.ImagesPerSearch)
	if err != nil {
		return fmt.Errorf("init image curator: %w", err)
	}

	writer, err := publish.NewWriter(cfg.ContentDir, cfg.AuthorName, cfg.WriteRetries, cfg.WriteRetryDelay)
	if err != nil {
		// The one fatal case: no usable output directory.
		return fmt.Errorf("init writer: %w", err)
	}

	aggregator := feed.NewAggregator(policy, cfg.MinBodyRunes, cfg.ItemMaxAge)

	stats := runBatch(ctx, cfg, aggregator, feeds, engine, curator, writer)
	logger.Info("batch finished",
		"candidates", stats.Candidates,
		"fallback_input", stats.UsedFallback,
		"persisted", stats.Persisted,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	if stats.Persisted == 0 && stats.Failed > 0 {
		metrics.Global.SetError("batch produced no records")
	}
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config, aggregator *feed.Aggregator, feeds []string, engine *rewrite.Engine, curator *images.Curator, writer *publish.Writer) Stats {
	start := time.Now()
	defer func() {
		metrics.Global.RecordBatchDuration(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	var stats Stats

	items := aggregator.FetchItems(ctx, feeds, cfg.MaxStories)
	if len(items) == 0 {
		logger.Warn("no items from any feed, substituting built-in fallback set")
		items = feed.FallbackItems(time.Now())
		stats.UsedFallback = true
	}
	stats.Candidates = len(items)

	curator.StartRun()

	for i, item := range items {
		if i > 0 {
			// Pause between items to respect rewrite/image service rate limits.
			time.Sleep(cfg.ItemPause)
		}
		logger.Info("processing story", "index", i+1, "total", len(items), "title", item.Title)

		story := engine.Rewrite(ctx, item)

		assignment, err := curator.Assign(ctx, images.Request{
			Slug:     story.Slug,
			Category: story.Classification.Category,
			Region:   story.Classification.Region,
			Title:    story.RewrittenTitle,
			Body:     story.RewrittenBody,
			Keywords: story.Classification.Keywords,
		})
		if err != nil {
			// The assignment itself is still usable; only ledger persistence failed.
			logger.Error("image ledger save failed", "slug", story.Slug, "error", err)
		}

		if _, err := writer.Persist(story, assignment); err != nil {
			if publish.IsPlaceholderRejection(err) {
				stats.Skipped++
			} else {
				logger.Error("persist failed", "slug", story.Slug, "error", err)
				stats.Failed++
			}
			continue
		}
		stats.Persisted++
	}

	return stats
}
