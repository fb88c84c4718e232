package scraper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tuananh131001/ai-job-search/internal/dedup"
	"github.com/tuananh131001/ai-job-search/internal/models"
)

// DefaultKeywords is the fixed search vocabulary used when a run does not
// supply its own.
var DefaultKeywords = []string{
	"marketing junior",
	"digital marketing",
	"content marketing",
	"social media marketing",
	"marketing executive",
	"marketing specialist",
	"marketing coordinator",
	"marketing assistant",
}

// DefaultLocation is the market this deployment targets.
const DefaultLocation = "Vietnam"

// Store is the persistence collaborator the orchestrator drives after
// dedup. A nil store means results are not persisted. SaveJobs reports
// how many rows were made durable and which listings were newly
// inserted, so callers can announce first sightings.
type Store interface {
	SaveJobs(ctx context.Context, jobs []JobData) (int, []JobData, error)
}

// Registry maps a source tag to its adapter factory. It is passed into the
// orchestrator explicitly rather than looked up from global state.
type Registry map[models.JobSource]Factory

// SourceStats records one adapter's contribution to a run.
type SourceStats struct {
	JobsFound    int       `json:"jobs_found"`
	MatchedJobs  int       `json:"matched_jobs"`
	PagesScraped int       `json:"pages_scraped"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
}

// RunResult is the aggregate outcome of one orchestrator run. It is always
// returned, partial failures included; the Errors list carries whatever
// went wrong per source.
type RunResult struct {
	TotalJobsFound int                               `json:"total_jobs_found"`
	UniqueJobs     int                               `json:"unique_jobs"`
	JobsSaved      int                               `json:"jobs_saved"`
	SourceStats    map[models.JobSource]*SourceStats `json:"source_statistics"`
	Errors         []string                          `json:"errors"`
	Timestamp      time.Time                         `json:"timestamp"`

	// NewJobs are the listings the store inserted for the first time this
	// run, kept for notification and left out of API responses.
	NewJobs []JobData `json:"-"`
}

// SourceHealth is one adapter's entry in a status check.
type SourceHealth struct {
	Status            string `json:"status"`
	RequestsPerMinute int    `json:"requests_per_minute,omitempty"`
	Error             string `json:"error,omitempty"`
}

// StatusReport describes the scraping infrastructure without running a
// full search.
type StatusReport struct {
	AvailableSources []models.JobSource                 `json:"available_sources"`
	DefaultKeywords  []string                           `json:"default_keywords"`
	SourceHealth     map[models.JobSource]*SourceHealth `json:"source_health"`
	Timestamp        time.Time                          `json:"timestamp"`
}

// TestReport is the outcome of a single-source, single-page smoke run.
type TestReport struct {
	Source       models.JobSource `json:"source"`
	JobsFound    int              `json:"jobs_found"`
	SampleTitles []string         `json:"sample_titles"`
	Stats        *SourceStats     `json:"statistics"`
	Keywords     []string         `json:"keywords_used"`
}

// Manager fans a search out to every requested adapter concurrently,
// settles all outcomes without letting one failure cancel siblings, merges
// and dedupes the results, and drives the persistence step.
type Manager struct {
	registry Registry
	store    Store
}

// NewManager builds an orchestrator over the given adapter registry.
// store may be nil; results are then returned without being persisted.
func NewManager(registry Registry, store Store) *Manager {
	return &Manager{registry: registry, store: store}
}

// Sources lists the registered source tags in registration-independent,
// stable order.
func (m *Manager) Sources() []models.JobSource {
	out := make([]models.JobSource, 0, len(m.registry))
	for _, s := range []models.JobSource{models.SourceIndeed, models.SourceLinkedIn} {
		if _, ok := m.registry[s]; ok {
			out = append(out, s)
		}
	}
	for s := range m.registry {
		if s != models.SourceIndeed && s != models.SourceLinkedIn {
			out = append(out, s)
		}
	}
	return out
}

// Known reports whether a source tag is registered.
func (m *Manager) Known(source models.JobSource) bool {
	_, ok := m.registry[source]
	return ok
}

type sourceOutcome struct {
	source models.JobSource
	jobs   []JobData
	stats  *SourceStats
}

// ScrapeAll runs a search across the requested sources. Nil keywords fall
// back to DefaultKeywords, empty location to DefaultLocation, nil sources
// to every registered adapter. Unknown source names are dropped with a
// warning. The per-source tasks run concurrently; each outcome is settled
// independently and a failing source only contributes an error string and
// a failed stats entry.
func (m *Manager) ScrapeAll(ctx context.Context, keywords []string, location string, maxPagesPerSource int, sources []models.JobSource) *RunResult {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if location == "" {
		location = DefaultLocation
	}
	if maxPagesPerSource <= 0 {
		maxPagesPerSource = 3
	}
	if sources == nil {
		sources = m.Sources()
	}

	var requested []models.JobSource
	for _, s := range sources {
		if m.Known(s) {
			requested = append(requested, s)
		} else {
			log.Printf("[manager] unknown scraper source: %s", s)
		}
	}

	log.Printf("[manager] starting scrape for sources %v", requested)

	outcomes := make(chan sourceOutcome, len(requested))
	var wg sync.WaitGroup
	for _, source := range requested {
		wg.Add(1)
		go func(source models.JobSource) {
			defer wg.Done()
			jobs, stats := m.scrapeSource(ctx, source, keywords, location, maxPagesPerSource)
			outcomes <- sourceOutcome{source: source, jobs: jobs, stats: stats}
		}(source)
	}
	wg.Wait()
	close(outcomes)

	result := &RunResult{
		SourceStats: make(map[models.JobSource]*SourceStats, len(requested)),
		Errors:      []string{},
	}

	// Candidates are walked in task-completion order; within one source
	// they preserve fetch order. First-seen-wins at dedup below.
	var all []JobData
	for o := range outcomes {
		result.SourceStats[o.source] = o.stats
		if o.stats.Error != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", o.source, o.stats.Error))
		}
		all = append(all, o.jobs...)
	}

	unique := dedup.Unique(all, func(j JobData) string {
		if j.URL != "" {
			return "url:" + j.URL
		}
		return "id:" + j.ExternalID
	})

	result.TotalJobsFound = len(all)
	result.UniqueJobs = len(unique)
	log.Printf("[manager] %d jobs found, %d unique after dedup", len(all), len(unique))

	if m.store != nil && len(unique) > 0 {
		saved, inserted, err := m.store.SaveJobs(ctx, unique)
		if err != nil {
			log.Printf("[manager] persistence error: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("persistence: %v", err))
		}
		result.JobsSaved = saved
		result.NewJobs = inserted
	}

	result.Timestamp = time.Now().UTC()
	return result
}

// scrapeSource runs one adapter end to end. Panics and errors are both
// converted into a failed stats entry so the fan-in never aborts siblings.
func (m *Manager) scrapeSource(ctx context.Context, source models.JobSource, keywords []string, location string, maxPages int) (jobs []JobData, stats *SourceStats) {
	stats = &SourceStats{StartTime: time.Now().UTC()}
	defer func() {
		if r := recover(); r != nil {
			stats.Success = false
			stats.Error = fmt.Sprintf("panic: %v", r)
			stats.EndTime = time.Now().UTC()
			jobs = nil
		}
	}()

	adapter := m.registry[source]()
	if err := adapter.Open(ctx); err != nil {
		stats.Error = err.Error()
		stats.EndTime = time.Now().UTC()
		return nil, stats
	}
	defer adapter.Close()

	found, searchStats, err := adapter.Search(ctx, keywords, location, maxPages)
	stats.EndTime = time.Now().UTC()
	stats.JobsFound = searchStats.TotalFound
	stats.MatchedJobs = len(found)
	stats.PagesScraped = searchStats.PagesScraped
	if err != nil {
		// Adapters only error when nothing was collected, but a future one
		// that returns partial results alongside its error keeps them.
		stats.Error = err.Error()
		return found, stats
	}

	stats.Success = true
	log.Printf("[manager] %s: %d matched of %d found", source, len(found), searchStats.TotalFound)
	return found, stats
}

// Status instantiates each adapter briefly to confirm it can open a
// session, and reports the declared throughput alongside.
func (m *Manager) Status(ctx context.Context) *StatusReport {
	report := &StatusReport{
		AvailableSources: m.Sources(),
		DefaultKeywords:  DefaultKeywords,
		SourceHealth:     make(map[models.JobSource]*SourceHealth, len(m.registry)),
		Timestamp:        time.Now().UTC(),
	}

	for _, source := range m.Sources() {
		adapter := m.registry[source]()
		health := &SourceHealth{RequestsPerMinute: adapter.Throughput()}
		if err := adapter.Open(ctx); err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
		} else {
			health.Status = "healthy"
			adapter.Close()
		}
		report.SourceHealth[source] = health
	}

	return report
}

// TestSource smoke-tests a single adapter with one page of results.
func (m *Manager) TestSource(ctx context.Context, source models.JobSource, keywords []string) (*TestReport, error) {
	if !m.Known(source) {
		return nil, fmt.Errorf("unknown scraper source: %s", source)
	}
	if keywords == nil {
		keywords = []string{"marketing junior"}
	}

	jobs, stats := m.scrapeSource(ctx, source, keywords, DefaultLocation, 1)
	if stats.Error != "" {
		return nil, fmt.Errorf("test failed for %s: %s", source, stats.Error)
	}

	titles := make([]string, 0, 3)
	for _, j := range jobs {
		if len(titles) == 3 {
			break
		}
		titles = append(titles, j.Title)
	}

	return &TestReport{
		Source:       source,
		JobsFound:    len(jobs),
		SampleTitles: titles,
		Stats:        stats,
		Keywords:     keywords,
	}, nil
}
