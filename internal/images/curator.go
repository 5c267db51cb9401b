package images

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"wanderpress/internal/logger"
	"wanderpress/internal/metrics"
	"wanderpress/internal/ratelimit"
	"wanderpress/internal/retry"
)

const (
	categoryMatchScore  = 10
	keywordOverlapScore = 5
	usagePenalty        = 2

	bodyScanRunes = 200
)

// Request carries everything the curator needs to pick an image for a story.
type Request struct {
	Slug     string
	Category string
	Region   string
	Title    string
	Body     string
	Keywords []string
}

// Curator assigns one image per story, avoiding duplicates within a run and
// discouraging repeats across the ledger.
type Curator struct {
	store     Store
	ledger    *Ledger
	searcher  Searcher
	policy    retry.Policy
	limiter   *ratelimit.ServiceLimiter
	perSearch int

	usedThisRun map[string]struct{}
	rng         *rand.Rand
}

func NewCurator(store Store, searcher Searcher, policy retry.Policy, limiter *ratelimit.ServiceLimiter, perSearch int) (*Curator, error) {
	ledger, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load image ledger: %w", err)
	}

	return &Curator{
		store:       store,
		ledger:      ledger,
		searcher:    searcher,
		policy:      policy,
		limiter:     limiter,
		perSearch:   perSearch,
		usedThisRun: make(map[string]struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// StartRun resets the within-batch duplicate tracking.
func (c *Curator) StartRun() {
	c.usedThisRun = make(map[string]struct{})
}

// Assign picks an image for the story. The returned assignment is always
// usable; a non-nil error only means the ledger could not be persisted.
func (c *Curator) Assign(ctx context.Context, req Request) (ImageAssignment, error) {
	// A slug that was assigned before always gets the same image back, and
	// its image counts toward this run's duplicate tracking.
	if existing, ok := c.ledger.AssignmentFor(req.Slug); ok {
		logger.Debug("image already assigned", "slug", req.Slug, "url", existing.ImageURL)
		c.usedThisRun[existing.ImageURL] = struct{}{}
		return existing, nil
	}

	candidates := c.liveCandidates(ctx, req)
	if len(candidates) == 0 {
		candidates = poolFor(req.Category)
	}

	// Repair drifted attribution pairs before scoring so the duplicate
	// filter sees the URL that would actually be assigned.
	repaired := make([]Candidate, len(candidates))
	for i, cand := range candidates {
		repaired[i] = c.canonicalize(cand)
	}

	chosen, ok := c.pickBest(repaired, req)
	if !ok {
		metrics.Global.IncrementImageFallbacks()
		chosen = c.lastResort(req)
	}

	if chosen.Category == "" {
		chosen.Category = req.Category
	}

	c.ledger.Record(req.Slug, chosen)
	c.usedThisRun[chosen.URL] = struct{}{}
	metrics.Global.IncrementImagesAssigned()

	assignment := ImageAssignment{
		ImageURL:        chosen.URL,
		AttributionName: chosen.Photographer,
		AttributionURL:  chosen.PhotographerURL,
	}

	// Ledger persistence after every assignment keeps a crash from losing
	// more than the in-flight story.
	if err := c.store.Save(c.ledger); err != nil {
		return assignment, fmt.Errorf("save image ledger: %w", err)
	}
	return assignment, nil
}

// liveCandidates walks the search-term fallback chain against the live
// image service. Returns nil when the service is absent, over budget or
// exhausted.
func (c *Curator) liveCandidates(ctx context.Context, req Request) []Candidate {
	if c.searcher == nil {
		return nil
	}

	for _, term := range searchTerms(req.Keywords, req.Region, req.Category, req.Title) {
		if c.limiter != nil && !c.limiter.CanUseImageSearch() {
			return nil
		}

		var found []Candidate
		err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
			if c.limiter != nil {
				c.limiter.RecordImageSearch()
			}
			results, err := c.searcher.Search(ctx, term, c.perSearch)
			if err != nil {
				return err
			}
			found = results
			return nil
		})
		if err != nil {
			logger.Warn("image search term failed", "term", term, "error", err)
			continue
		}
		return found
	}

	logger.Warn("all image search terms exhausted", "slug", req.Slug)
	return nil
}

// pickBest scores candidates and returns the winner. Candidates already
// used this run are excluded; an exhausted set reports !ok so the
// last-resort tiers can look beyond it.
func (c *Curator) pickBest(candidates []Candidate, req Request) (Candidate, bool) {
	fresh := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if _, used := c.usedThisRun[cand.URL]; !used {
			fresh = append(fresh, cand)
		}
	}
	if len(fresh) == 0 {
		return Candidate{}, false
	}

	haystack := buildHaystack(req)
	wantCategory := normalizeCategory(req.Category)

	best := fresh[0]
	bestScore := c.score(fresh[0], wantCategory, haystack)
	for _, cand := range fresh[1:] {
		// Strict comparison keeps ties resolved by pool order.
		if s := c.score(cand, wantCategory, haystack); s > bestScore {
			best, bestScore = cand, s
		}
	}
	return best, true
}

func (c *Curator) score(cand Candidate, wantCategory, haystack string) int {
	score := 0
	if normalizeCategory(cand.Category) == wantCategory && cand.Category != "" {
		score += categoryMatchScore
	}
	for _, kw := range cand.Keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			score += keywordOverlapScore
		}
	}
	score -= usagePenalty * c.ledger.UsageCount(cand.URL)
	return score
}

// lastResort returns the deterministic category default, or, when that is
// already a repeat within this run, a random unused image by a different
// photographer. Only with every image in every pool used does it settle
// for a repeat.
func (c *Curator) lastResort(req Request) Candidate {
	def := c.canonicalize(defaultFor(req.Category))
	if _, used := c.usedThisRun[def.URL]; !used {
		return def
	}

	var alternatives []Candidate
	for _, pool := range categoryPools {
		for _, cand := range pool {
			if cand.Photographer == def.Photographer {
				continue
			}
			cand = c.canonicalize(cand)
			if _, used := c.usedThisRun[cand.URL]; used {
				continue
			}
			alternatives = append(alternatives, cand)
		}
	}
	if len(alternatives) == 0 {
		return def
	}
	return alternatives[c.rng.Intn(len(alternatives))]
}

// canonicalize enforces the attribution invariant: a photographer maps to
// exactly one canonical image URL across the ledger.
func (c *Curator) canonicalize(cand Candidate) Candidate {
	canonical := c.ledger.CanonicalURLFor(cand.Photographer)
	if canonical == "" || canonical == cand.URL {
		return cand
	}
	logger.Warn("inconsistent attribution pair, substituting canonical image",
		"photographer", cand.Photographer, "url", cand.URL, "canonical", canonical)
	cand.URL = canonical
	if rec := c.ledger.Images[canonical]; rec != nil && rec.AttributionURL != "" {
		cand.PhotographerURL = rec.AttributionURL
	}
	return cand
}

// buildHaystack lowercases the searchable story text: supplied keywords,
// title words and the first ~200 runes of the body.
func buildHaystack(req Request) string {
	body := req.Body
	if runes := []rune(body); len(runes) > bodyScanRunes {
		body = string(runes[:bodyScanRunes])
	}
	parts := append([]string{}, req.Keywords...)
	parts = append(parts, req.Title, body)
	return strings.ToLower(strings.Join(parts, " "))
}
