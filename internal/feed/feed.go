package feed

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"wanderpress/internal/logger"
	"wanderpress/internal/metrics"
	"wanderpress/internal/retry"
	"wanderpress/internal/scrape"
)

// CandidateItem is one raw entry pulled from a feed. PublishedAt keeps the
// source timestamp string verbatim; Published is the parsed form used only
// for ordering and freshness checks.
type CandidateItem struct {
	Title       string
	Body        string
	PublishedAt string
	Published   time.Time
	SourceName  string
	SourceURL   string
	ExternalID  string
}

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the feed URL list from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// Aggregator polls the configured feeds and turns entries into candidates.
type Aggregator struct {
	parser       *gofeed.Parser
	policy       retry.Policy
	minBodyRunes int
	maxAge       time.Duration

	// fetchArticle is swapped out in tests
	fetchArticle func(url string) (*scrape.Extracted, error)
}

func NewAggregator(policy retry.Policy, minBodyRunes int, maxAge time.Duration) *Aggregator {
	return &Aggregator{
		parser:       gofeed.NewParser(),
		policy:       policy,
		minBodyRunes: minBodyRunes,
		maxAge:       maxAge,
		fetchArticle: scrape.FetchArticle,
	}
}

// FetchItems iterates feeds until count items are collected or the list is
// exhausted. Individual feed failures are logged and counted, never fatal.
func (a *Aggregator) FetchItems(ctx context.Context, feeds []string, count int) []CandidateItem {
	seenLinks := map[string]struct{}{}
	seenContent := map[string]struct{}{}
	var pool []CandidateItem

	for _, url := range feeds {
		if len(pool) >= count {
			break
		}

		metrics.Global.IncrementFeedsPolled()

		parsed, err := a.fetchFeed(ctx, url)
		if err != nil {
			metrics.Global.IncrementFeedsFailed()
			logger.Warn("feed failed, skipping", "url", url, "error", err)
			continue
		}
		logger.Info("feed loaded", "url", url, "entries", len(parsed.Items))

		for _, item := range parsed.Items {
			candidate, ok := a.toCandidate(parsed, item)
			if !ok {
				continue
			}

			if _, dup := seenLinks[candidate.SourceURL]; dup && candidate.SourceURL != "" {
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}
			key := contentKey(candidate.Title, candidate.Body)
			if _, dup := seenContent[key]; dup {
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}
			seenLinks[candidate.SourceURL] = struct{}{}
			seenContent[key] = struct{}{}

			pool = append(pool, candidate)
			metrics.Global.IncrementItemsCollected()
		}
	}

	// Newest first; items without a parsable date sink to the end.
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Published.IsZero() != pool[j].Published.IsZero() {
			return !pool[i].Published.IsZero()
		}
		return pool[i].Published.After(pool[j].Published)
	})

	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}

func (a *Aggregator) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	var parsed *gofeed.Feed
	err := retry.Do(ctx, a.policy, func(ctx context.Context) error {
		feed, err := a.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return fmt.Errorf("parse feed %s: %w", url, err)
		}
		parsed = feed
		return nil
	})
	return parsed, err
}

func (a *Aggregator) toCandidate(feed *gofeed.Feed, item *gofeed.Item) (CandidateItem, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return CandidateItem{}, false
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
		if a.maxAge > 0 && time.Since(published) > a.maxAge {
			return CandidateItem{}, false
		}
	}

	body := bodyFromItem(item)
	if utf8.RuneCountInString(body) < a.minBodyRunes && item.Link != "" {
		// Stub description; try the story page itself before giving up.
		if full, err := a.fetchArticle(item.Link); err == nil && utf8.RuneCountInString(full.Content) >= a.minBodyRunes {
			logger.Debug("scraped full article for stub entry", "url", item.Link, "chars", len(full.Content))
			body = full.Content
		}
	}
	if utf8.RuneCountInString(body) < a.minBodyRunes {
		logger.Debug("skipping near-empty entry", "title", title)
		return CandidateItem{}, false
	}

	externalID := item.GUID
	if externalID == "" {
		externalID = item.Link
	}

	return CandidateItem{
		Title:       title,
		Body:        strings.TrimSpace(body),
		PublishedAt: item.Published,
		Published:   published,
		SourceName:  feed.Title,
		SourceURL:   item.Link,
		ExternalID:  externalID,
	}, true
}

// bodyFromItem picks the first present body variant: full content, then
// description, then a content:encoded extension.
func bodyFromItem(item *gofeed.Item) string {
	if s := strings.TrimSpace(item.Content); s != "" {
		return s
	}
	if s := strings.TrimSpace(item.Description); s != "" {
		return s
	}
	if exts, ok := item.Extensions["content"]; ok {
		if encoded, ok := exts["encoded"]; ok && len(encoded) > 0 {
			return strings.TrimSpace(encoded[0].Value)
		}
	}
	return ""
}

// contentKey generates a hash key from title and body for deduplication.
func contentKey(title, body string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(title + body)))
	return hex.EncodeToString(h.Sum(nil))
}
