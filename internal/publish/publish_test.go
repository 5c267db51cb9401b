package publish

import (
	"os"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"wanderpress/internal/feed"
	"wanderpress/internal/images"
	"wanderpress/internal/logger"
	"wanderpress/internal/rewrite"
)

func init() {
	logger.Init()
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(t.TempDir(), "Test Author", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

func testStory(slug string) rewrite.RewrittenStory {
	return rewrite.RewrittenStory{
		CandidateItem: feed.CandidateItem{
			PublishedAt: "Mon, 02 Jan 2006 15:04:05 -0700",
		},
		RewrittenTitle: "Cliff Paths of Madeira",
		RewrittenBody:  "The levada trails cut into Madeira's cliffs carry hikers along old irrigation channels.\n\nMost start above Funchal.",
		Classification: rewrite.Classification{
			Category: "Adventure",
			Region:   "Portugal",
			Summary:  "Madeira's levada trails turn irrigation history into hiking routes.",
			Keywords: []string{"madeira", "hiking"},
		},
		WasRewritten: true,
		Slug:         slug,
	}
}

func testImage() images.ImageAssignment {
	return images.ImageAssignment{
		ImageURL:        "https://images.example.com/madeira",
		AttributionName: "Some Photographer",
		AttributionURL:  "https://example.com/@some",
	}
}

func TestPersistWritesFrontmatterAndBody(t *testing.T) {
	w := newTestWriter(t)

	rec, err := w.Persist(testStory("cliff-paths-of-madeira"), testImage())
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	content := string(data)

	parts := strings.SplitN(content, "---\n", 3)
	if len(parts) != 3 || parts[0] != "" {
		t.Fatalf("expected frontmatter fenced by ---, got: %q", content)
	}

	var meta Frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		t.Fatalf("frontmatter does not parse back: %v", err)
	}
	if meta.Title != "Cliff Paths of Madeira" || meta.Slug != "cliff-paths-of-madeira" {
		t.Errorf("frontmatter fields wrong: %+v", meta)
	}
	if meta.Attribution.Name != "Some Photographer" {
		t.Errorf("attribution block wrong: %+v", meta.Attribution)
	}
	if meta.SocialShared {
		t.Error("socialShared must default to false")
	}
	if !strings.Contains(parts[2], "levada trails") {
		t.Errorf("body missing: %q", parts[2])
	}
}

func TestPersistClampsFutureDate(t *testing.T) {
	w := newTestWriter(t)
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixedNow }

	story := testStory("future-dated")
	story.PublishedAt = fixedNow.Add(48 * time.Hour).Format(time.RFC1123Z)

	rec, err := w.Persist(story, testImage())
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if !rec.PublishedAt.Equal(fixedNow) {
		t.Errorf("future date not clamped: got %v, want %v", rec.PublishedAt, fixedNow)
	}
}

func TestPersistUsesNowForUnparsableDate(t *testing.T) {
	w := newTestWriter(t)
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixedNow }

	story := testStory("bad-date")
	story.PublishedAt = "sometime last week"

	rec, err := w.Persist(story, testImage())
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if !rec.PublishedAt.Equal(fixedNow) {
		t.Errorf("unparsable date should become now, got %v", rec.PublishedAt)
	}
}

func TestPersistAvoidsFilenameCollision(t *testing.T) {
	w := newTestWriter(t)

	first, err := w.Persist(testStory("same-slug"), testImage())
	if err != nil {
		t.Fatalf("first persist: %v", err)
	}
	second, err := w.Persist(testStory("same-slug"), testImage())
	if err != nil {
		t.Fatalf("second persist: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("collision not avoided, both at %s", first.Path)
	}
	for _, p := range []string{first.Path, second.Path} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("record %s missing: %v", p, err)
		}
	}
}

func TestPersistRejectsPlaceholderContent(t *testing.T) {
	w := newTestWriter(t)

	story := testStory("placeholder-story")
	story.RewrittenBody = "Lorem ipsum dolor sit amet, the rest of the template was never filled in."

	_, err := w.Persist(story, testImage())
	if err == nil {
		t.Fatal("expected placeholder rejection")
	}
	if !IsPlaceholderRejection(err) {
		t.Errorf("expected placeholder rejection marker, got %v", err)
	}
}

func TestPersistStripsEchoedTitle(t *testing.T) {
	w := newTestWriter(t)

	story := testStory("echoed-title")
	story.RewrittenBody = "# Cliff Paths of Madeira\nThe actual body starts here and continues."

	rec, err := w.Persist(story, testImage())
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	data, _ := os.ReadFile(rec.Path)
	body := strings.SplitN(string(data), "---\n", 3)[2]
	if strings.Contains(body, "Cliff Paths of Madeira") {
		t.Errorf("echoed title not stripped from body: %q", body)
	}
}

func TestManualFrontmatterParses(t *testing.T) {
	meta := Frontmatter{
		Title:       "A Title: With Colon",
		Date:        "2026-03-01",
		PublishedAt: "2026-03-01T12:00:00Z",
		Slug:        "a-title",
		Category:    "Travel",
		Region:      "Global",
		Excerpt:     "An excerpt",
		ImageURL:    "https://images.example.com/x",
		Attribution: Attribution{Name: "Someone", URL: "https://example.com"},
		Keywords:    []string{"travel"},
		Author:      "Test Author",
	}

	var parsed Frontmatter
	if err := yaml.Unmarshal([]byte(manualFrontmatter(meta)), &parsed); err != nil {
		t.Fatalf("manual block must stay valid YAML: %v", err)
	}
	if parsed.Title != meta.Title || parsed.Attribution.Name != "Someone" {
		t.Errorf("manual block round trip mismatch: %+v", parsed)
	}
}
