package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuananh131001/ai-job-search/internal/models"
)

type stubAdapter struct {
	source  models.JobSource
	jobs    []JobData
	stats   SearchStats
	err     error
	openErr error
	panics  bool

	opened   bool
	closed   bool
	gotPages int
}

func (s *stubAdapter) Source() models.JobSource { return s.source }
func (s *stubAdapter) Throughput() int          { return 20 }

func (s *stubAdapter) Open(ctx context.Context) error {
	s.opened = true
	return s.openErr
}

func (s *stubAdapter) Close() { s.closed = true }

func (s *stubAdapter) Search(ctx context.Context, keywords []string, location string, maxPages int) ([]JobData, SearchStats, error) {
	s.gotPages = maxPages
	if s.panics {
		panic("selector blew up")
	}
	return s.jobs, s.stats, s.err
}

// fakeStore treats every saved listing as newly inserted unless a subset
// is scripted via inserted.
type fakeStore struct {
	saved    []JobData
	inserted []JobData
	err      error
	calls    int
}

func (f *fakeStore) SaveJobs(ctx context.Context, jobs []JobData) (int, []JobData, error) {
	f.calls++
	f.saved = append(f.saved, jobs...)
	if f.err != nil {
		return 0, nil, f.err
	}
	if f.inserted != nil {
		return len(jobs), f.inserted, nil
	}
	return len(jobs), jobs, nil
}

func job(source models.JobSource, id, url, title string) JobData {
	return JobData{
		ExternalID:     id,
		Title:          title,
		CompanyName:    "Acme Co",
		URL:            url,
		Source:         source,
		SalaryCurrency: "VND",
		IsActive:       true,
	}
}

func registryOf(adapters ...*stubAdapter) Registry {
	r := Registry{}
	for _, a := range adapters {
		a := a
		r[a.source] = func() Adapter { return a }
	}
	return r
}

func TestScrapeAllMergesAndSaves(t *testing.T) {
	indeed := &stubAdapter{
		source: models.SourceIndeed,
		jobs: []JobData{
			job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing Executive"),
			job(models.SourceIndeed, "indeed_2", "https://vn.indeed.com/viewjob?jk=2", "Marketing Intern"),
		},
		stats: SearchStats{PagesScraped: 2, TotalFound: 5},
	}
	linkedin := &stubAdapter{
		source: models.SourceLinkedIn,
		jobs: []JobData{
			job(models.SourceLinkedIn, "linkedin_9", "https://linkedin.com/jobs/view/9", "Digital Marketing Junior"),
		},
		stats: SearchStats{PagesScraped: 1, TotalFound: 3},
	}
	store := &fakeStore{}
	m := NewManager(registryOf(indeed, linkedin), store)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 3, res.TotalJobsFound)
	assert.Equal(t, 3, res.UniqueJobs)
	assert.Equal(t, 3, res.JobsSaved)
	assert.Empty(t, res.Errors)
	assert.Len(t, store.saved, 3)
	assert.True(t, indeed.opened)
	assert.True(t, indeed.closed)
	assert.True(t, res.SourceStats[models.SourceIndeed].Success)
	assert.Equal(t, 5, res.SourceStats[models.SourceIndeed].JobsFound)
	assert.Equal(t, 2, res.SourceStats[models.SourceIndeed].MatchedJobs)
	assert.Equal(t, 2, res.SourceStats[models.SourceIndeed].PagesScraped)
	assert.False(t, res.Timestamp.IsZero())
}

func TestScrapeAllOneSourceFails(t *testing.T) {
	ok := &stubAdapter{
		source: models.SourceIndeed,
		jobs:   []JobData{job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing")},
		stats:  SearchStats{PagesScraped: 1, TotalFound: 1},
	}
	broken := &stubAdapter{
		source: models.SourceLinkedIn,
		err:    errors.New("fetch https://linkedin.com: HTTP 403"),
	}
	m := NewManager(registryOf(ok, broken), nil)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 1, res.TotalJobsFound)
	assert.Equal(t, 1, res.UniqueJobs)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "linkedin")
	assert.True(t, res.SourceStats[models.SourceIndeed].Success)
	assert.False(t, res.SourceStats[models.SourceLinkedIn].Success)
	assert.NotEmpty(t, res.SourceStats[models.SourceLinkedIn].Error)
	// the failing adapter's session is still released
	assert.True(t, broken.closed)
}

// Only listings the store actually inserted are reported for
// notification; re-sighted listings are saved but not announced again.
func TestScrapeAllReportsNewListingsOnly(t *testing.T) {
	fresh := job(models.SourceIndeed, "indeed_2", "https://vn.indeed.com/viewjob?jk=2", "Marketing Intern")
	a := &stubAdapter{
		source: models.SourceIndeed,
		jobs: []JobData{
			job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing Executive"),
			fresh,
		},
		stats: SearchStats{TotalFound: 2},
	}
	store := &fakeStore{inserted: []JobData{fresh}}
	m := NewManager(registryOf(a), store)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 2, res.JobsSaved)
	require.Len(t, res.NewJobs, 1)
	assert.Equal(t, "indeed_2", res.NewJobs[0].ExternalID)
}

// An adapter returning partial results alongside its error still
// contributes those results to the merged run.
func TestScrapeAllKeepsPartialResultsOnSourceError(t *testing.T) {
	partial := &stubAdapter{
		source: models.SourceLinkedIn,
		jobs:   []JobData{job(models.SourceLinkedIn, "linkedin_5", "https://linkedin.com/jobs/view/5", "Junior Marketing")},
		stats:  SearchStats{PagesScraped: 1, TotalFound: 1},
		err:    errors.New("page 2: fetch: HTTP 503"),
	}
	m := NewManager(registryOf(partial), nil)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 1, res.TotalJobsFound)
	assert.Equal(t, 1, res.UniqueJobs)
	require.Len(t, res.Errors, 1)
	assert.False(t, res.SourceStats[models.SourceLinkedIn].Success)
}

func TestScrapeAllAdapterPanicIsContained(t *testing.T) {
	ok := &stubAdapter{
		source: models.SourceIndeed,
		jobs:   []JobData{job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing")},
		stats:  SearchStats{TotalFound: 1},
	}
	panicky := &stubAdapter{source: models.SourceLinkedIn, panics: true}
	m := NewManager(registryOf(ok, panicky), nil)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 1, res.UniqueJobs)
	assert.False(t, res.SourceStats[models.SourceLinkedIn].Success)
	assert.Contains(t, res.SourceStats[models.SourceLinkedIn].Error, "panic")
}

func TestScrapeAllDeduplicatesAcrossSources(t *testing.T) {
	shared := "https://example.com/jobs/view/77"
	a := &stubAdapter{
		source: models.SourceIndeed,
		jobs: []JobData{
			job(models.SourceIndeed, "indeed_77", shared, "Junior Marketing"),
			job(models.SourceIndeed, "indeed_78", "", "No URL card"),
			job(models.SourceIndeed, "indeed_78", "", "No URL card again"),
		},
		stats: SearchStats{TotalFound: 3},
	}
	b := &stubAdapter{
		source: models.SourceLinkedIn,
		jobs:   []JobData{job(models.SourceLinkedIn, "linkedin_77", shared, "Junior Marketing (dup)")},
		stats:  SearchStats{TotalFound: 1},
	}
	m := NewManager(registryOf(a, b), nil)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	// one survivor for the shared URL, one for the url-less external id;
	// which variant survives the URL tie is completion-order dependent,
	// so only counts are asserted.
	assert.Equal(t, 4, res.TotalJobsFound)
	assert.Equal(t, 2, res.UniqueJobs)
}

func TestScrapeAllUnknownSourceDropped(t *testing.T) {
	known := &stubAdapter{
		source: models.SourceIndeed,
		jobs:   []JobData{job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing")},
		stats:  SearchStats{TotalFound: 1},
	}
	m := NewManager(registryOf(known), nil)

	res := m.ScrapeAll(context.Background(), nil, "", 3, []models.JobSource{models.SourceIndeed, "glassdoor"})

	assert.Equal(t, 1, res.UniqueJobs)
	assert.NotContains(t, res.SourceStats, models.JobSource("glassdoor"))
	assert.Empty(t, res.Errors)
}

func TestScrapeAllPersistenceFailureReported(t *testing.T) {
	a := &stubAdapter{
		source: models.SourceIndeed,
		jobs:   []JobData{job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Junior Marketing")},
		stats:  SearchStats{TotalFound: 1},
	}
	store := &fakeStore{err: errors.New("commit failed")}
	m := NewManager(registryOf(a), store)

	res := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 0, res.JobsSaved)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[len(res.Errors)-1], "persistence")
}

// Re-running the merge with the same candidate set must not inflate the
// unique count: dedup is idempotent over the run's input.
func TestScrapeAllIdempotentDedup(t *testing.T) {
	a := &stubAdapter{
		source: models.SourceIndeed,
		jobs: []JobData{
			job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "A"),
			job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "A repeat"),
		},
		stats: SearchStats{TotalFound: 2},
	}
	m := NewManager(registryOf(a), nil)

	first := m.ScrapeAll(context.Background(), nil, "", 3, nil)
	second := m.ScrapeAll(context.Background(), nil, "", 3, nil)

	assert.Equal(t, 1, first.UniqueJobs)
	assert.Equal(t, first.UniqueJobs, second.UniqueJobs)
}

func TestTestSource(t *testing.T) {
	a := &stubAdapter{
		source: models.SourceIndeed,
		jobs: []JobData{
			job(models.SourceIndeed, "indeed_1", "https://vn.indeed.com/viewjob?jk=1", "Title One"),
			job(models.SourceIndeed, "indeed_2", "https://vn.indeed.com/viewjob?jk=2", "Title Two"),
			job(models.SourceIndeed, "indeed_3", "https://vn.indeed.com/viewjob?jk=3", "Title Three"),
			job(models.SourceIndeed, "indeed_4", "https://vn.indeed.com/viewjob?jk=4", "Title Four"),
		},
		stats: SearchStats{PagesScraped: 1, TotalFound: 4},
	}
	m := NewManager(registryOf(a), nil)

	report, err := m.TestSource(context.Background(), models.SourceIndeed, nil)

	require.NoError(t, err)
	assert.Equal(t, 4, report.JobsFound)
	assert.Equal(t, []string{"Title One", "Title Two", "Title Three"}, report.SampleTitles)
	assert.Equal(t, 1, a.gotPages)
	assert.Equal(t, []string{"marketing junior"}, report.Keywords)
}

func TestTestSourceUnknown(t *testing.T) {
	m := NewManager(Registry{}, nil)
	_, err := m.TestSource(context.Background(), "glassdoor", nil)
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	healthy := &stubAdapter{source: models.SourceIndeed}
	sick := &stubAdapter{source: models.SourceLinkedIn, openErr: errors.New("no route to host")}
	m := NewManager(registryOf(healthy, sick), nil)

	report := m.Status(context.Background())

	assert.ElementsMatch(t, []models.JobSource{models.SourceIndeed, models.SourceLinkedIn}, report.AvailableSources)
	assert.Equal(t, DefaultKeywords, report.DefaultKeywords)
	assert.Equal(t, "healthy", report.SourceHealth[models.SourceIndeed].Status)
	assert.Equal(t, "unhealthy", report.SourceHealth[models.SourceLinkedIn].Status)
	assert.Equal(t, 20, report.SourceHealth[models.SourceIndeed].RequestsPerMinute)
}
