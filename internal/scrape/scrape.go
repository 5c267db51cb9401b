package scrape

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Extracted is the full article text pulled from a story page.
type Extracted struct {
	Title   string
	Content string
	URL     string
}

var httpClient = &http.Client{
	Timeout: 15 * time.Second,
}

// FetchArticle downloads url and extracts the main article text. Used when a
// feed entry carries only a stub description.
func FetchArticle(url string) (*Extracted, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	content := ExtractContent(doc)
	if content == "" {
		return nil, fmt.Errorf("no article content found")
	}

	return &Extracted{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// ExtractContent walks common article selectors and assembles cleaned
// paragraphs from the first selector that yields anything.
func ExtractContent(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		".article-body p",
		".post-content p",
		".entry-content p",
		".content p",
		"main p",
	}

	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && len(text) > 10 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}

	return CleanContent(strings.Join(paragraphs, "\n\n"))
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

var junkIndicators = []string{
	"cookie", "gdpr", "advertisement", "subscribe", "newsletter",
	"read more", "click here", "follow us", "share this", "sign up",
}

// CleanContent drops navigation junk lines, collapses whitespace and caps the
// result length on a paragraph boundary.
func CleanContent(content string) string {
	var cleanLines []string

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < 8 {
			continue
		}

		lower := strings.ToLower(line)
		isJunk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				isJunk = true
				break
			}
		}
		if isJunk {
			continue
		}

		cleanLines = append(cleanLines, line)
	}

	resultText := strings.Join(cleanLines, "\n\n")

	for strings.Contains(resultText, "  ") {
		resultText = strings.ReplaceAll(resultText, "  ", " ")
	}
	for strings.Contains(resultText, "\n\n\n") {
		resultText = strings.ReplaceAll(resultText, "\n\n\n", "\n\n")
	}
	resultText = strings.TrimSpace(resultText)

	// Keep full paragraphs under the length cap
	if len(resultText) > 8000 {
		paragraphs := strings.Split(resultText, "\n\n")
		var selected []string
		total := 0
		for _, p := range paragraphs {
			if total+len(p) > 7600 {
				break
			}
			selected = append(selected, p)
			total += len(p) + 2
		}
		if len(selected) > 0 {
			resultText = strings.Join(selected, "\n\n")
		}
	}

	return resultText
}
