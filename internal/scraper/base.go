// Package scraper contains the source-adapter contract, the rate-limited
// fetch client shared by all adapters, and the orchestrator that fans out
// a search across every configured listing site.
package scraper

import (
	"context"
	"time"

	"github.com/tuananh131001/ai-job-search/internal/models"
)

// DescriptionLimit caps descriptions pulled from detail pages.
const DescriptionLimit = 2000

// JobData is a candidate listing produced by one search pass, prior to
// dedup and persistence. ExternalID is source-prefixed and never empty for
// a valid record: cards that fail to yield an id are dropped during
// extraction.
type JobData struct {
	ExternalID      string           `json:"external_id"`
	Title           string           `json:"title"`
	CompanyName     string           `json:"company_name"`
	Description     string           `json:"description"`
	Location        string           `json:"location"`
	URL             string           `json:"url"`
	Source          models.JobSource `json:"source"`
	JobType         string           `json:"job_type,omitempty"`
	ExperienceLevel string           `json:"experience_level,omitempty"`
	SalaryMin       *float64         `json:"salary_min,omitempty"`
	SalaryMax       *float64         `json:"salary_max,omitempty"`
	SalaryCurrency  string           `json:"salary_currency"`
	PostedDate      *time.Time       `json:"posted_date,omitempty"`
	IsActive        bool             `json:"is_active"`
}

// SearchStats reports what a single adapter's search pass did before the
// relevance filter was applied.
type SearchStats struct {
	PagesScraped int `json:"pages_scraped"`
	TotalFound   int `json:"total_found"`
}

// Adapter is the per-source capability set. Each implementation declares
// its source tag and a conservative default throughput, owns its own HTTP
// session and rate-limit budget, and pages through search results applying
// its relevance filter before returning.
type Adapter interface {
	// Source is the tag this adapter contributes to external ids and stats.
	Source() models.JobSource

	// Throughput is the declared requests-per-minute ceiling.
	Throughput() int

	// Open prepares the adapter's HTTP session. Must be called before
	// Search; Close releases the session even if Search failed.
	Open(ctx context.Context) error
	Close()

	// Search pages through results for the given keywords and location,
	// stopping early at an empty page or after maxPages, and returns only
	// listings passing the adapter's relevance filter. A page-level failure
	// ends pagination; already-collected pages are returned with a nil
	// error, and the error surfaces only when nothing was collected.
	Search(ctx context.Context, keywords []string, location string, maxPages int) ([]JobData, SearchStats, error)
}

// Factory builds a fresh adapter instance. Each orchestrator run gets its
// own instances so sessions and rate budgets are never shared.
type Factory func() Adapter
