package images

import (
	"context"
	"errors"
	"testing"
	"time"

	"wanderpress/internal/logger"
	"wanderpress/internal/retry"
)

func init() {
	logger.Init()
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 1, Delay: time.Millisecond, Timeout: time.Second}
}

func newTestCurator(t *testing.T, searcher Searcher) *Curator {
	t.Helper()
	c, err := NewCurator(NewMemoryStore(), searcher, testPolicy(), nil, 10)
	if err != nil {
		t.Fatalf("NewCurator: %v", err)
	}
	return c
}

func beachRequest(slug string) Request {
	return Request{
		Slug:     slug,
		Category: "Beaches",
		Region:   "Thailand",
		Title:    "Beaches of Thailand",
		Body:     "White sand and warm water on the Andaman coast.",
		Keywords: []string{"beach", "thailand"},
	}
}

func TestAssignIsIdempotentPerSlug(t *testing.T) {
	c := newTestCurator(t, nil)

	first, err := c.Assign(context.Background(), beachRequest("beaches-of-thailand"))
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}
	second, err := c.Assign(context.Background(), beachRequest("beaches-of-thailand"))
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}
	if first != second {
		t.Errorf("expected identical assignment, got %+v then %+v", first, second)
	}
}

func TestAssignAvoidsDuplicatesWithinRun(t *testing.T) {
	c := newTestCurator(t, nil)
	c.StartRun()

	seen := map[string]string{}
	poolSize := len(poolFor("Beaches"))
	for i := 0; i < poolSize; i++ {
		req := beachRequest("")
		req.Slug = "story-" + string(rune('a'+i))
		got, err := c.Assign(context.Background(), req)
		if err != nil {
			t.Fatalf("assign %s: %v", req.Slug, err)
		}
		if prior, dup := seen[got.ImageURL]; dup {
			t.Errorf("image %s assigned to both %s and %s with pool not exhausted", got.ImageURL, prior, req.Slug)
		}
		seen[got.ImageURL] = req.Slug
	}
}

func TestAssignAllowsRepeatsWhenPoolExhausted(t *testing.T) {
	c := newTestCurator(t, nil)
	c.StartRun()

	total := 0
	for _, pool := range categoryPools {
		total += len(pool)
	}
	for i := 0; i <= total; i++ {
		req := beachRequest("")
		req.Slug = "overflow-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		if _, err := c.Assign(context.Background(), req); err != nil {
			t.Fatalf("assign past exhaustion must still work: %v", err)
		}
	}
}

func TestAssignExhaustedCategoryPoolPicksDifferentPhotographer(t *testing.T) {
	c := newTestCurator(t, nil)
	c.StartRun()

	pool := poolFor("Beaches")
	used := map[string]struct{}{}
	for i := range pool {
		got, err := c.Assign(context.Background(), beachRequest("beach-story-"+string(rune('a'+i))))
		if err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		used[got.ImageURL] = struct{}{}
	}
	if len(used) != len(pool) {
		t.Fatalf("expected the full beach pool consumed first, got %d distinct images", len(used))
	}

	got, err := c.Assign(context.Background(), beachRequest("beach-story-overflow"))
	if err != nil {
		t.Fatalf("assign past category exhaustion: %v", err)
	}
	if _, dup := used[got.ImageURL]; dup {
		t.Errorf("expected an unused image from another pool, got repeat %s", got.ImageURL)
	}
	if got.AttributionName == pool[0].Photographer {
		t.Errorf("expected a different photographer than the category default, got %s", got.AttributionName)
	}
}

func TestAssignReplayedSlugCountsTowardDuplicateTracking(t *testing.T) {
	c := newTestCurator(t, nil)
	prior := poolFor("Beaches")[0]
	c.ledger.Record("prior-story", prior)
	c.StartRun()

	replayed, err := c.Assign(context.Background(), beachRequest("prior-story"))
	if err != nil {
		t.Fatalf("replayed assign: %v", err)
	}
	if replayed.ImageURL != prior.URL {
		t.Fatalf("expected stored assignment back, got %s", replayed.ImageURL)
	}

	// Keywords aimed squarely at the replayed image's candidate.
	req := Request{
		Slug:     "new-story",
		Category: "Beaches",
		Title:    "Sand and Ocean",
		Body:     "Tropical light on the water.",
		Keywords: []string{"sand", "ocean", "tropical"},
	}
	fresh, err := c.Assign(context.Background(), req)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if fresh.ImageURL == prior.URL {
		t.Errorf("replayed assignment must count toward duplicate tracking, got repeat %s", fresh.ImageURL)
	}
}

func TestAssignCanonicalRepairRespectsWithinRunTracking(t *testing.T) {
	c := newTestCurator(t, nil)
	canonical := Candidate{
		URL:             "https://images.example.com/frank-canonical",
		Photographer:    "Frank McKenna",
		PhotographerURL: "https://unsplash.com/@frankiefoto",
		Category:        "Beaches",
	}
	c.ledger.Record("earlier-story", canonical)
	c.StartRun()
	c.usedThisRun[canonical.URL] = struct{}{}

	// Keywords steer scoring toward the Frank McKenna pool candidate, whose
	// canonical URL is already taken this run.
	req := Request{
		Slug:     "waves-story",
		Category: "Beaches",
		Title:    "Waves on the Coast",
		Body:     "Morning swell along the rocks.",
		Keywords: []string{"waves", "coast"},
	}
	got, err := c.Assign(context.Background(), req)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.ImageURL == canonical.URL {
		t.Errorf("canonical substitution produced a within-run repeat: %s", got.ImageURL)
	}
}

func TestAssignPrefersKeywordOverlap(t *testing.T) {
	c := newTestCurator(t, nil)
	c.StartRun()

	req := Request{
		Slug:     "sunset-walks",
		Category: "Beaches",
		Title:    "Sunset Walks on the Shore",
		Body:     "Evening light over the sea.",
		Keywords: []string{"sunset", "shore"},
	}
	got, err := c.Assign(context.Background(), req)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	// The Shifaaz Shamoon candidate carries both "sunset" and "shore".
	if got.AttributionName != "Shifaaz Shamoon" {
		t.Errorf("expected keyword-matching candidate to win, got %s (%s)", got.AttributionName, got.ImageURL)
	}
}

func TestAssignPenalizesPriorUsage(t *testing.T) {
	c := newTestCurator(t, nil)

	// Burn the pool leader several times under different slugs and runs.
	leader := poolFor("Cities")[0]
	for _, slug := range []string{"one", "two", "three", "four", "five", "six"} {
		c.ledger.Record(slug, leader)
	}
	c.StartRun()

	req := Request{Slug: "fresh-city-story", Category: "Cities", Title: "A City Story", Body: "streets"}
	got, err := c.Assign(context.Background(), req)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.ImageURL == leader.URL {
		t.Errorf("usage penalty should have displaced the overused pool leader")
	}
}

func TestAssignSubstitutesCanonicalURLForAttribution(t *testing.T) {
	c := newTestCurator(t, nil)
	canonical := Candidate{
		URL:             "https://images.example.com/canonical",
		Photographer:    "Sean Oulashin",
		PhotographerURL: "https://unsplash.com/@oulashin",
		Category:        "Beaches",
	}
	c.ledger.Record("earlier-story", canonical)
	c.StartRun()

	// Keywords steer scoring toward the Sean Oulashin pool candidate, whose
	// stored URL differs from the ledger's canonical one.
	req := Request{
		Slug:     "new-story",
		Category: "Beaches",
		Title:    "Sand and Ocean",
		Body:     "Tropical light on the water.",
		Keywords: []string{"sand", "ocean", "tropical"},
	}
	got, err := c.Assign(context.Background(), req)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.AttributionName != "Sean Oulashin" {
		t.Fatalf("expected the keyword-matching candidate to win, got %s", got.AttributionName)
	}
	if got.ImageURL != canonical.URL {
		t.Errorf("attribution %q must map to its canonical URL, got %s", got.AttributionName, got.ImageURL)
	}
}

type failingSearcher struct{ calls int }

func (f *failingSearcher) Search(ctx context.Context, term string, count int) ([]Candidate, error) {
	f.calls++
	return nil, errors.New("service unavailable")
}

func TestAssignFallsBackToPoolsWhenSearchDown(t *testing.T) {
	searcher := &failingSearcher{}
	c := newTestCurator(t, searcher)
	c.StartRun()

	got, err := c.Assign(context.Background(), beachRequest("offline-story"))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.ImageURL == "" || got.AttributionName == "" {
		t.Fatal("expected curated-pool assignment despite search outage")
	}
	if searcher.calls == 0 {
		t.Error("expected the search fallback chain to be attempted")
	}
}

type cannedSearcher struct {
	results []Candidate
	terms   []string
}

func (s *cannedSearcher) Search(ctx context.Context, term string, count int) ([]Candidate, error) {
	s.terms = append(s.terms, term)
	return s.results, nil
}

func TestAssignUsesLiveSearchResults(t *testing.T) {
	searcher := &cannedSearcher{results: []Candidate{{
		URL:             "https://images.example.com/live-1",
		Photographer:    "Live Photographer",
		PhotographerURL: "https://example.com/@live",
		Keywords:        []string{"beach"},
	}}}
	c := newTestCurator(t, searcher)
	c.StartRun()

	got, err := c.Assign(context.Background(), beachRequest("live-story"))
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.ImageURL != "https://images.example.com/live-1" {
		t.Errorf("expected live search result, got %s", got.ImageURL)
	}
	if len(searcher.terms) != 1 {
		t.Errorf("expected a single search term used, got %v", searcher.terms)
	}
}

func TestSearchTermsPriorityOrder(t *testing.T) {
	terms := searchTerms([]string{"islands"}, "Greece", "Beaches", "Quiet Corners of the Saronic Gulf")
	if len(terms) != 4 {
		t.Fatalf("expected 4 terms, got %v", terms)
	}
	for i, prefix := range []string{"islands", "greece", "beaches", "travel"} {
		if wantPrefix := prefix + " "; len(terms[i]) < len(wantPrefix) || terms[i][:len(wantPrefix)] != wantPrefix {
			t.Errorf("term %d = %q, want prefix %q", i, terms[i], wantPrefix)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/ledger.json"
	store := NewFileStore(path)

	ledger := NewLedger()
	ledger.Record("some-story", poolFor("Nature")[0])
	if err := store.Save(ledger); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := loaded.AssignmentFor("some-story")
	if !ok {
		t.Fatal("assignment lost in round trip")
	}
	if got.ImageURL != poolFor("Nature")[0].URL {
		t.Errorf("unexpected URL after round trip: %s", got.ImageURL)
	}
	rec := loaded.Images[got.ImageURL]
	if rec == nil || len(rec.UsedBySlugs) != 1 || rec.UsedBySlugs[0] != "some-story" {
		t.Errorf("ledger invariant broken after round trip: %+v", rec)
	}
}
