package rewrite

import (
	"strings"
	"testing"
)

const wellFormedResponse = `Island Hopping the Cyclades Without a Plan

Ferries between the Cyclades run often enough that a fixed itinerary works against you.
Start in Naxos, where rooms stay affordable even in August, and let the schedule decide the rest.

A second paragraph keeps the article honest.
---
CATEGORY: Beaches
REGION: Greece
EXCERPT: Skip the itinerary and let the ferry schedule pick your next Greek island.
KEYWORDS: greece, cyclades, island hopping, ferries
`

func TestParseResponseWellFormed(t *testing.T) {
	got := ParseResponse(wellFormedResponse, "source body")

	if got.Title != "Island Hopping the Cyclades Without a Plan" {
		t.Errorf("title: got %q", got.Title)
	}
	if !strings.Contains(got.Body, "Start in Naxos") {
		t.Errorf("body lost a paragraph: %q", got.Body)
	}
	if strings.Contains(got.Body, "CATEGORY") {
		t.Errorf("meta block leaked into body: %q", got.Body)
	}
	if got.Classification.Category != "Beaches" {
		t.Errorf("category: got %q", got.Classification.Category)
	}
	if got.Classification.Region != "Greece" {
		t.Errorf("region: got %q", got.Classification.Region)
	}
	if len(got.Classification.Keywords) != 4 || got.Classification.Keywords[0] != "greece" {
		t.Errorf("keywords: got %v", got.Classification.Keywords)
	}
}

func TestParseResponseNoSeparatorUsesDefaults(t *testing.T) {
	raw := "A Headline\n\nJust article text with no metadata block at all, long enough to matter."
	got := ParseResponse(raw, "source body")

	if got.Classification.Category != "Travel" {
		t.Errorf("expected default category Travel, got %q", got.Classification.Category)
	}
	if got.Classification.Region != "Global" {
		t.Errorf("expected default region Global, got %q", got.Classification.Region)
	}
	if len(got.Classification.Keywords) != 1 || got.Classification.Keywords[0] != "travel" {
		t.Errorf("expected default keywords [travel], got %v", got.Classification.Keywords)
	}
	if got.Classification.Summary == "" {
		t.Error("expected excerpt derived from body")
	}
}

func TestParseResponseExcerptFromSourceWhenBodyEmpty(t *testing.T) {
	got := ParseResponse("Only A Title", "the source text used for the excerpt")
	if !strings.Contains(got.Classification.Summary, "the source text") {
		t.Errorf("expected excerpt from source body, got %q", got.Classification.Summary)
	}
}

func TestParseResponseTolerantLabels(t *testing.T) {
	raw := "Title Line\n\nBody text here that is long enough.\n----\ncategory : Food\nRegion:Italy\nkeywords: pasta , rome\n"
	got := ParseResponse(raw, "")
	if got.Classification.Category != "Food" {
		t.Errorf("case-insensitive label not matched: %q", got.Classification.Category)
	}
	if got.Classification.Region != "Italy" {
		t.Errorf("missing-space label not matched: %q", got.Classification.Region)
	}
	if len(got.Classification.Keywords) != 2 || got.Classification.Keywords[1] != "rome" {
		t.Errorf("keywords not normalized: %v", got.Classification.Keywords)
	}
}

func TestExcerptCutsOnWordBoundary(t *testing.T) {
	text := strings.Repeat("wandering through old towns ", 20)
	got := Excerpt(text, 150)
	if len([]rune(got)) > 154 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Beaches of Thailand!!", "beaches-of-thailand"},
		{"  Hello,   World  ", "hello-world"},
		{"Ænes & Øya", "ænes-øya"},
		{"---", ""},
		{"Tokyo 2025: A Guide", "tokyo-2025-a-guide"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildPromptTruncatesLongBody(t *testing.T) {
	body := strings.Repeat("A reasonably long sentence about travel destinations. ", 400)
	prompt := BuildPrompt("Some Title", body, 6000)
	if !strings.Contains(prompt, "[TRUNCATED]") {
		t.Error("expected truncation marker for oversized body")
	}
	if len([]rune(prompt)) > 7000 {
		t.Errorf("prompt is still oversized: %d runes", len([]rune(prompt)))
	}
}
