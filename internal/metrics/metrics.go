package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsPolled        int64
	FeedsFailed        int64
	ItemsCollected     int64
	DuplicatesFiltered int64
	StoriesRewritten   int64
	RewriteFallbacks   int64
	ImagesAssigned     int64
	ImageFallbacks     int64
	RecordsPersisted   int64
	StoriesSkipped     int64

	// Timings
	LastBatchDuration    time.Duration
	TotalBatchDuration   time.Duration
	AverageBatchDuration time.Duration
	BatchCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) add(field *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field++
}

func (m *Metrics) IncrementFeedsPolled()        { m.add(&m.FeedsPolled) }
func (m *Metrics) IncrementFeedsFailed()        { m.add(&m.FeedsFailed) }
func (m *Metrics) IncrementItemsCollected()     { m.add(&m.ItemsCollected) }
func (m *Metrics) IncrementDuplicatesFiltered() { m.add(&m.DuplicatesFiltered) }
func (m *Metrics) IncrementStoriesRewritten()   { m.add(&m.StoriesRewritten) }
func (m *Metrics) IncrementRewriteFallbacks()   { m.add(&m.RewriteFallbacks) }
func (m *Metrics) IncrementImagesAssigned()     { m.add(&m.ImagesAssigned) }
func (m *Metrics) IncrementImageFallbacks()     { m.add(&m.ImageFallbacks) }
func (m *Metrics) IncrementRecordsPersisted()   { m.add(&m.RecordsPersisted) }
func (m *Metrics) IncrementStoriesSkipped()     { m.add(&m.StoriesSkipped) }

func (m *Metrics) RecordBatchDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastBatchDuration = duration
	m.TotalBatchDuration += duration
	m.BatchCount++

	if m.BatchCount > 0 {
		m.AverageBatchDuration = m.TotalBatchDuration / time.Duration(m.BatchCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_polled":              m.FeedsPolled,
		"feeds_failed":              m.FeedsFailed,
		"items_collected":           m.ItemsCollected,
		"duplicates_filtered":       m.DuplicatesFiltered,
		"stories_rewritten":         m.StoriesRewritten,
		"rewrite_fallbacks":         m.RewriteFallbacks,
		"images_assigned":           m.ImagesAssigned,
		"image_fallbacks":           m.ImageFallbacks,
		"records_persisted":         m.RecordsPersisted,
		"stories_skipped":           m.StoriesSkipped,
		"last_batch_duration_ms":    m.LastBatchDuration.Milliseconds(),
		"average_batch_duration_ms": m.AverageBatchDuration.Milliseconds(),
		"last_run_time":             m.LastRunTime.Format(time.RFC3339),
		"last_error_time":           m.LastErrorTime.Format(time.RFC3339),
		"last_error":                m.LastError,
		"is_healthy":                m.IsHealthy,
	}
}
