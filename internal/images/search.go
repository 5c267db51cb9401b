package images

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Candidate is one selectable image, from either a live search or the
// curated pools.
type Candidate struct {
	URL             string
	Photographer    string
	PhotographerURL string
	Category        string
	Keywords        []string
}

// Searcher is the live image-search dependency. Nil when no API key is
// configured; the curator then works from the curated pools only.
type Searcher interface {
	Search(ctx context.Context, term string, count int) ([]Candidate, error)
}

// SearchClient talks to an Unsplash-style photo search API.
type SearchClient struct {
	client  *resty.Client
	baseURL string
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
		Tags []struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"results"`
}

func NewSearchClient(baseURL, apiKey string) *SearchClient {
	return &SearchClient{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Accept-Version", "v1").
			SetHeader("Authorization", "Client-ID "+apiKey),
		baseURL: baseURL,
	}
}

// Search asks for landscape-oriented photos matching term.
func (c *SearchClient) Search(ctx context.Context, term string, count int) ([]Candidate, error) {
	var parsed searchResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":       term,
			"orientation": "landscape",
			"per_page":    fmt.Sprintf("%d", count),
		}).
		SetResult(&parsed).
		Get(c.baseURL + "/search/photos")
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", term, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("image search %q: unexpected status %d", term, resp.StatusCode())
	}

	var candidates []Candidate
	for _, r := range parsed.Results {
		if r.URLs.Regular == "" || r.User.Name == "" {
			continue
		}
		c := Candidate{
			URL:             r.URLs.Regular,
			Photographer:    r.User.Name,
			PhotographerURL: r.User.Links.HTML,
		}
		for _, tag := range r.Tags {
			if tag.Title != "" {
				c.Keywords = append(c.Keywords, tag.Title)
			}
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("image search %q: no usable results", term)
	}
	return candidates, nil
}
