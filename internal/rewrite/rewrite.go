package rewrite

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"wanderpress/internal/cache"
	"wanderpress/internal/feed"
	"wanderpress/internal/logger"
	"wanderpress/internal/metrics"
	"wanderpress/internal/ratelimit"
	"wanderpress/internal/retry"
)

// Classification is the structured metadata block the text service returns
// alongside the rewritten article.
type Classification struct {
	Category string
	Region   string
	Summary  string
	Keywords []string
}

// RewrittenStory carries the candidate plus the rewrite result. When every
// provider fails, the original title and body are copied through and
// WasRewritten stays false; the item is never dropped for that reason alone.
type RewrittenStory struct {
	feed.CandidateItem

	RewrittenTitle string
	RewrittenBody  string
	Classification Classification
	WasRewritten   bool
	Slug           string
}

// Provider is one generative text backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Engine sends candidates through a provider chain with retry, parses the
// structured response and falls back to the original text on exhaustion.
type Engine struct {
	providers      []Provider
	policy         retry.Policy
	limiter        *ratelimit.ServiceLimiter
	results        *cache.Cache
	cacheTTL       time.Duration
	maxPromptRunes int
	minBodyRunes   int
}

func NewEngine(providers []Provider, policy retry.Policy, limiter *ratelimit.ServiceLimiter, maxPromptRunes, minBodyRunes int, cacheTTL time.Duration) *Engine {
	return &Engine{
		providers:      providers,
		policy:         policy,
		limiter:        limiter,
		results:        cache.New(),
		cacheTTL:       cacheTTL,
		maxPromptRunes: maxPromptRunes,
		minBodyRunes:   minBodyRunes,
	}
}

// Rewrite turns one candidate into a story. Always returns a usable story.
func (e *Engine) Rewrite(ctx context.Context, item feed.CandidateItem) RewrittenStory {
	cacheKey := cache.Key(item.Title, item.Body)
	if cached, ok := e.results.Get(cacheKey); ok {
		if story, ok := cached.(RewrittenStory); ok {
			logger.Debug("rewrite cache hit", "title", item.Title)
			story.CandidateItem = item
			return story
		}
	}

	userPrompt := BuildPrompt(item.Title, item.Body, e.maxPromptRunes)

	for _, provider := range e.providers {
		if e.limiter != nil && !e.limiter.CanUseRewrite() {
			break
		}

		story, err := e.rewriteWith(ctx, provider, item, userPrompt)
		if err != nil {
			logger.Warn("rewrite provider failed", "provider", provider.Name(), "title", item.Title, "error", err)
			continue
		}

		metrics.Global.IncrementStoriesRewritten()
		e.results.Set(cacheKey, story, e.cacheTTL)
		return story
	}

	logger.Warn("all rewrite providers exhausted, keeping original text", "title", item.Title)
	metrics.Global.IncrementRewriteFallbacks()
	return fallbackStory(item)
}

func (e *Engine) rewriteWith(ctx context.Context, provider Provider, item feed.CandidateItem, userPrompt string) (RewrittenStory, error) {
	var story RewrittenStory

	err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
		if e.limiter != nil {
			e.limiter.RecordRewrite()
		}

		raw, err := provider.Generate(ctx, systemPrompt, userPrompt)
		if err != nil {
			return fmt.Errorf("%s generate: %w", provider.Name(), err)
		}

		parsed := ParseResponse(raw, item.Body)
		if parsed.Title == "" {
			return fmt.Errorf("%s returned an empty title", provider.Name())
		}
		if utf8.RuneCountInString(parsed.Body) < e.minBodyRunes {
			return fmt.Errorf("%s returned a body of %d runes, need %d", provider.Name(), utf8.RuneCountInString(parsed.Body), e.minBodyRunes)
		}

		story = RewrittenStory{
			CandidateItem:  item,
			RewrittenTitle: parsed.Title,
			RewrittenBody:  parsed.Body,
			Classification: parsed.Classification,
			WasRewritten:   true,
			Slug:           Slugify(parsed.Title),
		}
		return nil
	})

	return story, err
}

// fallbackStory copies the original text through with default metadata.
func fallbackStory(item feed.CandidateItem) RewrittenStory {
	return RewrittenStory{
		CandidateItem:  item,
		RewrittenTitle: item.Title,
		RewrittenBody:  item.Body,
		Classification: defaultClassification(item.Body),
		WasRewritten:   false,
		Slug:           Slugify(item.Title),
	}
}
