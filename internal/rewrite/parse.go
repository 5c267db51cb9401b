package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultCategory = "Travel"
	DefaultRegion   = "Global"
	DefaultKeyword  = "travel"

	excerptRunes = 150
)

const systemPrompt = `You are a travel editor. You rewrite source material into ` +
	`original, engaging travel articles. You never copy sentences verbatim and ` +
	`you never invent facts that are not in the source.`

// BuildPrompt assembles the rewrite instruction with the source body
// truncated to maxRunes on a rune boundary, cut back to a sentence end.
func BuildPrompt(title, body string, maxRunes int) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = strings.TrimSpace(body)
	body = strings.Join(strings.Fields(body), " ")

	if utf8.RuneCountInString(body) > maxRunes {
		runes := []rune(body)
		trimmed := string(runes[:maxRunes])
		if idx := strings.LastIndex(trimmed, ". "); idx > maxRunes/5 {
			trimmed = trimmed[:idx+1]
		}
		body = trimmed + "\n[TRUNCATED]"
	}

	return fmt.Sprintf(`Rewrite the following travel story as an original article.

SOURCE TITLE: %s
SOURCE TEXT: %s

Respond in EXACTLY this format:

<new headline on the first line>

<the rewritten article, several paragraphs>
---
CATEGORY: <one of: Beaches, Cities, Culture, Food, Adventure, Nature, Travel>
REGION: <continent or country>
EXCERPT: <one-sentence teaser, under 160 characters>
KEYWORDS: <3-6 comma-separated lowercase keywords>`, title, body)
}

// Parsed is the decoded service response.
type Parsed struct {
	Title          string
	Body           string
	Classification Classification
}

var labelPatterns = []struct {
	name  string
	regex *regexp.Regexp
}{
	{"category", regexp.MustCompile(`(?i)^CATEGORY\s*:\s*`)},
	{"region", regexp.MustCompile(`(?i)^REGION\s*:\s*`)},
	{"excerpt", regexp.MustCompile(`(?i)^EXCERPT\s*:\s*`)},
	{"keywords", regexp.MustCompile(`(?i)^KEYWORDS\s*:\s*`)},
}

var separatorLine = regexp.MustCompile(`^\s*-{3,}\s*$`)

// ParseResponse splits the raw response into headline, article body and the
// tagged metadata block. A missing or unparsable block yields defaults
// derived from sourceBody instead of an error.
func ParseResponse(raw, sourceBody string) Parsed {
	raw = strings.TrimSpace(raw)
	lines := strings.Split(raw, "\n")

	var articleLines []string
	var metaLines []string
	inMeta := false

	for _, line := range lines {
		if !inMeta && separatorLine.MatchString(line) {
			inMeta = true
			continue
		}
		if inMeta {
			metaLines = append(metaLines, line)
		} else {
			articleLines = append(articleLines, line)
		}
	}

	title, body := splitTitle(articleLines)

	meta := parseMetaBlock(metaLines)
	if meta.Category == "" {
		meta.Category = DefaultCategory
	}
	if meta.Region == "" {
		meta.Region = DefaultRegion
	}
	if meta.Summary == "" {
		meta.Summary = Excerpt(firstNonEmpty(body, sourceBody), excerptRunes)
	}
	if len(meta.Keywords) == 0 {
		meta.Keywords = []string{DefaultKeyword}
	}

	return Parsed{Title: title, Body: body, Classification: meta}
}

// splitTitle treats the first non-empty line as the headline, stripping any
// markdown decoration the model added.
func splitTitle(lines []string) (string, string) {
	title := ""
	bodyStart := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "# ")
		trimmed = strings.Trim(trimmed, "*_")
		title = strings.TrimSpace(trimmed)
		bodyStart = i + 1
		break
	}

	body := strings.TrimSpace(strings.Join(lines[min(bodyStart, len(lines)):], "\n"))
	return title, body
}

func parseMetaBlock(lines []string) Classification {
	var meta Classification

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, lp := range labelPatterns {
			if !lp.regex.MatchString(line) {
				continue
			}
			value := strings.TrimSpace(lp.regex.ReplaceAllString(line, ""))
			switch lp.name {
			case "category":
				meta.Category = value
			case "region":
				meta.Region = value
			case "excerpt":
				meta.Summary = value
			case "keywords":
				meta.Keywords = splitKeywords(value)
			}
			break
		}
	}

	return meta
}

func splitKeywords(value string) []string {
	var keywords []string
	for _, k := range strings.Split(value, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

func defaultClassification(body string) Classification {
	return Classification{
		Category: DefaultCategory,
		Region:   DefaultRegion,
		Summary:  Excerpt(body, excerptRunes),
		Keywords: []string{DefaultKeyword},
	}
}

// Excerpt cuts text to roughly maxRunes on a word boundary.
func Excerpt(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// Slugify derives a URL-safe identifier from a title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, ends trimmed.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
