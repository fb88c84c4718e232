// Package indeed scrapes Marketing Junior listings from Indeed Vietnam's
// server-rendered search pages.
package indeed

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tuananh131001/ai-job-search/internal/filter"
	"github.com/tuananh131001/ai-job-search/internal/models"
	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

const (
	defaultBaseURL = "https://vn.indeed.com"

	// Conservative throughput for Indeed.
	requestsPerMinute = 20
	maxRetries        = 3
	retryDelay        = 2 * time.Second
	pageSize          = 10
)

var jkPattern = regexp.MustCompile(`jk=([a-f0-9]+)`)

// Scraper implements the Indeed source adapter.
type Scraper struct {
	client    *scraper.Client
	baseURL   string
	headers   map[string]string
	pageDelay time.Duration
	now       func() time.Time
}

// New builds an Indeed adapter with production defaults.
func New() scraper.Adapter {
	return newScraper(defaultBaseURL, scraper.ClientConfig{
		RequestsPerMinute: requestsPerMinute,
		Timeout:           30 * time.Second,
		MaxRetries:        maxRetries,
		RetryDelay:        retryDelay,
	}, 2*time.Second)
}

func newScraper(baseURL string, cc scraper.ClientConfig, pageDelay time.Duration) *Scraper {
	return &Scraper{
		client:  scraper.NewClient(cc),
		baseURL: baseURL,
		headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9,vi;q=0.8",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		pageDelay: pageDelay,
		now:       time.Now,
	}
}

func (s *Scraper) Source() models.JobSource { return models.SourceIndeed }
func (s *Scraper) Throughput() int          { return requestsPerMinute }

func (s *Scraper) Open(ctx context.Context) error { return s.client.Open(ctx) }
func (s *Scraper) Close()                         { s.client.Close() }

// Search pages through Indeed search results. Pagination is sequential:
// an empty page means end-of-results, a failed page ends pagination while
// keeping what was already collected. Matches of the baseline relevance
// filter are returned.
func (s *Scraper) Search(ctx context.Context, keywords []string, location string, maxPages int) ([]scraper.JobData, scraper.SearchStats, error) {
	query := strings.Join(keywords, " ")
	log.Printf("[indeed] searching %q in %q", query, location)

	var all []scraper.JobData
	var stats scraper.SearchStats
	var pageErr error

	for page := 0; page < maxPages; page++ {
		jobs, err := s.scrapePage(ctx, query, location, page*pageSize)
		if err != nil {
			log.Printf("[indeed] page %d: %v", page+1, err)
			pageErr = fmt.Errorf("page %d: %w", page+1, err)
			break
		}
		if len(jobs) == 0 {
			log.Printf("[indeed] no more jobs on page %d, stopping", page+1)
			break
		}
		all = append(all, jobs...)
		stats.PagesScraped++

		if page < maxPages-1 {
			if err := sleep(ctx, s.pageDelay); err != nil {
				pageErr = err
				break
			}
		}
	}

	stats.TotalFound = len(all)

	matched := make([]scraper.JobData, 0, len(all))
	for _, j := range all {
		if filter.Relevant(j.Title, j.Description) {
			matched = append(matched, j)
		}
	}

	log.Printf("[indeed] %d marketing junior jobs out of %d total", len(matched), len(all))
	if pageErr != nil && len(all) == 0 {
		return matched, stats, pageErr
	}
	return matched, stats, nil
}

func (s *Scraper) scrapePage(ctx context.Context, query, location string, start int) ([]scraper.JobData, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("l", location)
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", "date")
	params.Set("filter", "0")

	searchURL := s.baseURL + "/jobs?" + params.Encode()

	html, err := s.client.Fetch(ctx, searchURL, s.headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	cards := doc.Find("div.job_seen_beacon, div.result, div.jobsearch-SerpJobCard")
	if cards.Length() == 0 {
		return nil, nil
	}

	var jobs []scraper.JobData
	cards.Each(func(_ int, card *goquery.Selection) {
		if job := s.extractCard(ctx, card, location); job != nil {
			jobs = append(jobs, *job)
		}
	})
	return jobs, nil
}

// extractCard parses one search-result fragment. The external id comes
// from the card's data-jk attribute, else from the jk= parameter of its
// URL; with neither the card is dropped. Company, location and salary
// default to sentinels when absent. A detail-page fetch upgrades the
// snippet description when it succeeds.
func (s *Scraper) extractCard(ctx context.Context, card *goquery.Selection, fallbackLocation string) *scraper.JobData {
	titleEl := card.Find("a[data-jk]").First()
	if titleEl.Length() == 0 {
		titleEl = card.Find("h2[class*=jobTitle] a").First()
	}
	if titleEl.Length() == 0 {
		return nil
	}

	title := scraper.CleanText(titleEl.Text())

	jobURL := ""
	if href, ok := titleEl.Attr("href"); ok {
		jobURL = scraper.NormalizeURL(href, s.baseURL)
	}

	externalID, _ := titleEl.Attr("data-jk")
	if externalID == "" && jobURL != "" {
		if m := jkPattern.FindStringSubmatch(jobURL); m != nil {
			externalID = m[1]
		}
	}
	if externalID == "" {
		return nil
	}

	companyName := "Unknown Company"
	if el := card.Find("span[class*=companyName]").First(); el.Length() > 0 {
		companyName = scraper.CleanText(el.Text())
	}

	location := fallbackLocation
	if el := card.Find("div[class*=companyLocation]").First(); el.Length() > 0 {
		location = scraper.CleanText(el.Text())
	}

	var salaryMin, salaryMax *float64
	if el := card.Find("span[class*=salary]").First(); el.Length() > 0 {
		salaryMin, salaryMax = scraper.ParseSalary(el.Text())
	}

	description := ""
	if el := card.Find("div[class*=snippet], div[class*=summary]").First(); el.Length() > 0 {
		description = scraper.CleanText(el.Text())
	}

	// Detail page gives a much fuller description; losing it is fine,
	// the snippet stays in place.
	if jobURL != "" {
		if full, err := s.fetchDescription(ctx, jobURL); err == nil && full != "" {
			description = full
		}
	}

	var postedDate *time.Time
	if el := card.Find("span[class*=date]").First(); el.Length() > 0 {
		postedDate = scraper.ParseRelativeDate(el.Text(), s.now())
	}

	return &scraper.JobData{
		ExternalID:      "indeed_" + externalID,
		Title:           title,
		CompanyName:     companyName,
		Description:     description,
		Location:        location,
		URL:             jobURL,
		Source:          models.SourceIndeed,
		JobType:         string(models.JobTypeFullTime),
		ExperienceLevel: filter.ExperienceLevel(title, description),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		SalaryCurrency:  "VND",
		PostedDate:      postedDate,
		IsActive:        true,
	}
}

func (s *Scraper) fetchDescription(ctx context.Context, jobURL string) (string, error) {
	html, err := s.client.Fetch(ctx, jobURL, s.headers)
	if err != nil {
		log.Printf("[indeed] detail fetch %s: %v", jobURL, err)
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	container := doc.Find("#jobDescriptionText").First()
	if container.Length() == 0 {
		container = doc.Find("div[class*=jobsearch-jobDescriptionText], div[class*=jobDescription]").First()
	}
	if container.Length() == 0 {
		return "", nil
	}
	return scraper.TruncateDescription(scraper.CleanText(container.Text())), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
