package images

// ImageAssignment is what the curator hands back for one story.
type ImageAssignment struct {
	ImageURL        string `json:"image_url"`
	AttributionName string `json:"attribution_name"`
	AttributionURL  string `json:"attribution_url"`
}

// ImageRecord tracks one image across the whole ledger.
type ImageRecord struct {
	URL             string   `json:"url"`
	AttributionName string   `json:"attribution_name"`
	AttributionURL  string   `json:"attribution_url"`
	Category        string   `json:"category"`
	Keywords        []string `json:"keywords,omitempty"`
	UsedBySlugs     []string `json:"used_by_slugs"`
}

// Ledger is the persisted usage state. Invariant: every URL referenced by
// SlugToImage has a record in Images whose UsedBySlugs names that slug.
type Ledger struct {
	Images      map[string]*ImageRecord `json:"images"`
	SlugToImage map[string]string       `json:"slug_to_image"`
}

func NewLedger() *Ledger {
	return &Ledger{
		Images:      make(map[string]*ImageRecord),
		SlugToImage: make(map[string]string),
	}
}

// AssignmentFor returns the stored assignment for a slug, if any.
func (l *Ledger) AssignmentFor(slug string) (ImageAssignment, bool) {
	url, ok := l.SlugToImage[slug]
	if !ok {
		return ImageAssignment{}, false
	}
	rec, ok := l.Images[url]
	if !ok {
		return ImageAssignment{}, false
	}
	return ImageAssignment{
		ImageURL:        rec.URL,
		AttributionName: rec.AttributionName,
		AttributionURL:  rec.AttributionURL,
	}, true
}

// UsageCount reports how many stories anywhere in the ledger use the URL.
func (l *Ledger) UsageCount(url string) int {
	rec, ok := l.Images[url]
	if !ok {
		return 0
	}
	return len(rec.UsedBySlugs)
}

// CanonicalURLFor returns the URL the ledger already associates with an
// attribution name, or "" when the photographer is unknown.
func (l *Ledger) CanonicalURLFor(attributionName string) string {
	for url, rec := range l.Images {
		if rec.AttributionName == attributionName {
			return url
		}
	}
	return ""
}

// Record writes an assignment into both maps, upholding the invariant.
func (l *Ledger) Record(slug string, candidate Candidate) {
	rec, ok := l.Images[candidate.URL]
	if !ok {
		rec = &ImageRecord{
			URL:             candidate.URL,
			AttributionName: candidate.Photographer,
			AttributionURL:  candidate.PhotographerURL,
			Category:        candidate.Category,
			Keywords:        candidate.Keywords,
		}
		l.Images[candidate.URL] = rec
	}
	for _, s := range rec.UsedBySlugs {
		if s == slug {
			l.SlugToImage[slug] = candidate.URL
			return
		}
	}
	rec.UsedBySlugs = append(rec.UsedBySlugs, slug)
	l.SlugToImage[slug] = candidate.URL
}

// Store abstracts ledger persistence so the curator is testable with an
// in-memory implementation.
type Store interface {
	Load() (*Ledger, error)
	Save(*Ledger) error
}

// MemoryStore keeps the ledger in memory only. Used in tests and as a
// degraded mode when no path is configured.
type MemoryStore struct {
	ledger *Ledger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledger: NewLedger()}
}

func (m *MemoryStore) Load() (*Ledger, error) {
	if m.ledger == nil {
		m.ledger = NewLedger()
	}
	return m.ledger, nil
}

func (m *MemoryStore) Save(l *Ledger) error {
	m.ledger = l
	return nil
}
