package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wanderpress/internal/images"
	"wanderpress/internal/logger"
	"wanderpress/internal/metrics"
	"wanderpress/internal/rewrite"
)

// Attribution is the nested credit block inside the frontmatter.
type Attribution struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Frontmatter is the metadata block of a persisted record. Field order here
// is the on-disk order.
type Frontmatter struct {
	Title        string      `yaml:"title"`
	Date         string      `yaml:"date"`
	PublishedAt  string      `yaml:"publishedAt"`
	Slug         string      `yaml:"slug"`
	Category     string      `yaml:"category"`
	Region       string      `yaml:"region"`
	Excerpt      string      `yaml:"excerpt"`
	ImageURL     string      `yaml:"imageUrl"`
	Attribution  Attribution `yaml:"attribution"`
	Keywords     []string    `yaml:"keywords"`
	Author       string      `yaml:"author"`
	SocialShared bool        `yaml:"socialShared"`
}

// PersistedRecord describes one story written to disk.
type PersistedRecord struct {
	Path        string
	Meta        Frontmatter
	PublishedAt time.Time
}

// placeholderError marks stories rejected for containing template text.
type placeholderError struct{ phrase string }

func (e *placeholderError) Error() string {
	return fmt.Sprintf("placeholder content detected: %q", e.phrase)
}

// IsPlaceholderRejection reports whether err is a placeholder skip rather
// than a real write failure.
func IsPlaceholderRejection(err error) bool {
	var pe *placeholderError
	return errors.As(err, &pe)
}

var placeholderMarkers = []string{
	"lorem ipsum",
	"placeholder",
	"your title here",
	"sample text",
	"[insert",
	"todo:",
}

// Writer persists stories as frontmatter-tagged markdown files.
type Writer struct {
	dir          string
	author       string
	writeRetries int
	retryDelay   time.Duration

	// now is swapped out in tests
	now func() time.Time
}

// NewWriter creates the output directory. A failure here is the only fatal
// error in the pipeline.
func NewWriter(dir, author string, writeRetries int, retryDelay time.Duration) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create content directory %s: %w", dir, err)
	}
	return &Writer{
		dir:          dir,
		author:       author,
		writeRetries: writeRetries,
		retryDelay:   retryDelay,
		now:          time.Now,
	}, nil
}

// Persist writes one story plus its image to disk.
func (w *Writer) Persist(story rewrite.RewrittenStory, image images.ImageAssignment) (*PersistedRecord, error) {
	if phrase := findPlaceholder(story.RewrittenTitle, story.RewrittenBody); phrase != "" {
		logger.Warn("skipping placeholder story", "title", story.RewrittenTitle, "marker", phrase)
		metrics.Global.IncrementStoriesSkipped()
		return nil, &placeholderError{phrase: phrase}
	}

	now := w.now()
	published := clampPublished(story.PublishedAt, now)
	body := stripLeadingTitle(story.RewrittenBody, story.RewrittenTitle)

	meta := Frontmatter{
		Title:       story.RewrittenTitle,
		Date:        published.Format("2006-01-02"),
		PublishedAt: published.Format(time.RFC3339),
		Slug:        story.Slug,
		Category:    story.Classification.Category,
		Region:      story.Classification.Region,
		Excerpt:     story.Classification.Summary,
		ImageURL:    image.ImageURL,
		Attribution: Attribution{
			Name: image.AttributionName,
			URL:  image.AttributionURL,
		},
		Keywords:     story.Classification.Keywords,
		Author:       w.author,
		SocialShared: false,
	}

	content := renderRecord(meta, body)
	path := w.targetPath(story.Slug, now)

	if err := w.writeWithRetry(path, content); err != nil {
		return nil, fmt.Errorf("persist %s: %w", story.Slug, err)
	}

	metrics.Global.IncrementRecordsPersisted()
	logger.Info("record persisted", "path", path, "slug", story.Slug)
	return &PersistedRecord{Path: path, Meta: meta, PublishedAt: published}, nil
}

func findPlaceholder(title, body string) string {
	haystack := strings.ToLower(title + "\n" + body)
	for _, marker := range placeholderMarkers {
		if strings.Contains(haystack, marker) {
			return marker
		}
	}
	return ""
}

// Feeds report timestamps in many layouts; try them in order.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// clampPublished parses the original timestamp. Unparsable or future dates
// become now: a record must never claim a publication time ahead of the
// wall clock.
func clampPublished(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if t.After(now) {
			logger.Warn("future-dated source timestamp clamped", "raw", raw)
			return now
		}
		return t
	}
	logger.Warn("unparsable source timestamp, using now", "raw", raw)
	return now
}

// stripLeadingTitle drops a first body line that merely echoes the title.
func stripLeadingTitle(body, title string) string {
	trimmed := strings.TrimSpace(body)
	lines := strings.SplitN(trimmed, "\n", 2)
	if len(lines) == 0 {
		return trimmed
	}

	first := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
	first = strings.Trim(first, "*_")
	if !strings.EqualFold(first, strings.TrimSpace(title)) {
		return trimmed
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.TrimSpace(lines[1])
}

// renderRecord serializes frontmatter + body. A marshal failure falls back
// to a hand-built equivalent block so the story is never lost.
func renderRecord(meta Frontmatter, body string) string {
	var b strings.Builder
	b.WriteString("---\n")

	data, err := yaml.Marshal(meta)
	if err != nil {
		logger.Error("frontmatter marshal failed, using manual block", "slug", meta.Slug, "error", err)
		b.WriteString(manualFrontmatter(meta))
	} else {
		b.Write(data)
	}

	b.WriteString("---\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}

func manualFrontmatter(meta Frontmatter) string {
	var b strings.Builder
	writeField := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(fmt.Sprintf("%q", value))
		b.WriteString("\n")
	}

	writeField("title", meta.Title)
	writeField("date", meta.Date)
	writeField("publishedAt", meta.PublishedAt)
	writeField("slug", meta.Slug)
	writeField("category", meta.Category)
	writeField("region", meta.Region)
	writeField("excerpt", meta.Excerpt)
	writeField("imageUrl", meta.ImageURL)
	b.WriteString("attribution:\n")
	b.WriteString(fmt.Sprintf("    name: %q\n", meta.Attribution.Name))
	b.WriteString(fmt.Sprintf("    url: %q\n", meta.Attribution.URL))
	b.WriteString("keywords:\n")
	for _, kw := range meta.Keywords {
		b.WriteString(fmt.Sprintf("    - %q\n", kw))
	}
	writeField("author", meta.Author)
	b.WriteString("socialShared: false\n")
	return b.String()
}

// targetPath places the record under the slug name, suffixing a
// high-resolution timestamp when the name is taken. Existing records are
// never overwritten.
func (w *Writer) targetPath(slug string, now time.Time) string {
	path := filepath.Join(w.dir, slug+".md")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	suffixed := filepath.Join(w.dir, fmt.Sprintf("%s-%d.md", slug, now.UnixNano()))
	logger.Warn("filename collision, suffixing", "slug", slug, "path", suffixed)
	return suffixed
}

func (w *Writer) writeWithRetry(path, content string) error {
	var lastErr error
	for attempt := 1; attempt <= w.writeRetries; attempt++ {
		lastErr = os.WriteFile(path, []byte(content), 0644)
		if lastErr == nil {
			return nil
		}
		logger.Warn("write failed", "path", path, "attempt", attempt, "error", lastErr)
		if attempt < w.writeRetries {
			time.Sleep(w.retryDelay)
		}
	}
	return fmt.Errorf("write failed after %d attempts: %w", w.writeRetries, lastErr)
}
