package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `<html><head><title>Page Title</title></head><body>
<h1>Hidden Beaches of the Algarve</h1>
<article>
<p>The Algarve coastline hides dozens of coves only reachable on foot or by boat.</p>
<p>Subscribe to our newsletter for weekly updates.</p>
<p>Local fishermen still run morning trips from Lagos harbour, and the water stays warm well into October.</p>
</article>
</body></html>`

func TestExtractContentDropsJunkLines(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("parse sample page: %v", err)
	}

	content := ExtractContent(doc)
	if content == "" {
		t.Fatal("expected extracted content")
	}
	if strings.Contains(strings.ToLower(content), "newsletter") {
		t.Errorf("junk line survived extraction: %q", content)
	}
	if !strings.Contains(content, "Algarve coastline") {
		t.Errorf("expected article paragraph preserved, got: %q", content)
	}
	if !strings.Contains(content, "Lagos harbour") {
		t.Errorf("expected second paragraph preserved, got: %q", content)
	}
}

func TestCleanContentCollapsesWhitespace(t *testing.T) {
	in := "A  line   with   extra spaces here\n\n\n\nAnother paragraph follows it"
	out := CleanContent(in)
	if strings.Contains(out, "  ") {
		t.Errorf("double spaces remain: %q", out)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("triple newlines remain: %q", out)
	}
}

func TestCleanContentDropsShortLines(t *testing.T) {
	in := "ok\nThis is a long enough line to keep around for the article body"
	out := CleanContent(in)
	if strings.Contains(out, "ok") && len(out) < 20 {
		t.Errorf("short line should have been dropped: %q", out)
	}
}
