// Package linkedin scrapes Marketing Junior listings from LinkedIn's
// public job search pages. LinkedIn is hostile to automation, so this
// adapter runs with the most conservative throughput of any source.
package linkedin

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
	defaultBaseURL = "https://www.linkedin.com"

	requestsPerMinute = 10
	maxRetries        = 2
	retryDelay        = 3 * time.Second
	pageSize          = 25
)

var (
	viewPattern = regexp.MustCompile(`/jobs/view/(\d+)`)
	urnPattern  = regexp.MustCompile(`:(\d+)$`)
)

// Scraper implements the LinkedIn source adapter.
type Scraper struct {
	client      *scraper.Client
	baseURL     string
	headers     map[string]string
	pageDelay   time.Duration
	detailDelay time.Duration
	now         func() time.Time
}

// New builds a LinkedIn adapter with production defaults.
func New() scraper.Adapter {
	return newScraper(defaultBaseURL, scraper.ClientConfig{
		RequestsPerMinute: requestsPerMinute,
		Timeout:           30 * time.Second,
		MaxRetries:        maxRetries,
		RetryDelay:        retryDelay,
	}, 5*time.Second, 2*time.Second)
}

func newScraper(baseURL string, cc scraper.ClientConfig, pageDelay, detailDelay time.Duration) *Scraper {
	return &Scraper{
		client:  scraper.NewClient(cc),
		baseURL: baseURL,
		headers: map[string]string{
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
			"Upgrade-Insecure-Requests": "1",
		},
		pageDelay:   pageDelay,
		detailDelay: detailDelay,
		now:         time.Now,
	}
}

func (s *Scraper) Source() models.JobSource { return models.SourceLinkedIn }
func (s *Scraper) Throughput() int          { return requestsPerMinute }

func (s *Scraper) Open(ctx context.Context) error { return s.client.Open(ctx) }
func (s *Scraper) Close()                         { s.client.Close() }

// Search pages through LinkedIn public search results, then applies the
// strict relevance refinement: baseline plus senior-title exclusion plus a
// required concrete marketing discipline.
func (s *Scraper) Search(ctx context.Context, keywords []string, location string, maxPages int) ([]scraper.JobData, scraper.SearchStats, error) {
	query := strings.Join(keywords, " ")
	log.Printf("[linkedin] searching %q in %q", query, location)

	var all []scraper.JobData
	var stats scraper.SearchStats
	var pageErr error

	for page := 0; page < maxPages; page++ {
		jobs, err := s.scrapePage(ctx, query, location, page*pageSize)
		if err != nil {
			log.Printf("[linkedin] page %d: %v", page+1, err)
			pageErr = fmt.Errorf("page %d: %w", page+1, err)
			break
		}
		if len(jobs) == 0 {
			log.Printf("[linkedin] no more jobs on page %d, stopping", page+1)
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
		if filter.RelevantStrict(j.Title, j.Description) {
			matched = append(matched, j)
		}
	}

	log.Printf("[linkedin] %d marketing junior jobs out of %d total", len(matched), len(all))
	if pageErr != nil && len(all) == 0 {
		return matched, stats, pageErr
	}
	return matched, stats, nil
}

func (s *Scraper) scrapePage(ctx context.Context, query, location string, start int) ([]scraper.JobData, error) {
	params := url.Values{}
	params.Set("keywords", query)
	params.Set("location", location)
	params.Set("start", strconv.Itoa(start))
	params.Set("sortBy", "DD")
	params.Set("f_TPR", "r604800") // posted within the last week
	params.Set("f_E", "2")         // entry level

	searchURL := s.baseURL + "/jobs/search?" + params.Encode()

	html, err := s.client.Fetch(ctx, searchURL, s.headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	// selectors are tried in turn: nested fallbacks would double-count
	// cards whose outer and inner nodes both carry a card class
	cards := doc.Find("li[class*=job-search-card]")
	if cards.Length() == 0 {
		cards = doc.Find("div[class*=base-search-card]")
	}
	if cards.Length() == 0 {
		cards = doc.Find("div[data-entity-urn]")
	}
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

// extractCard parses one result fragment. The external id comes from the
// /jobs/view/<id> URL pattern, else from the numeric tail of the card's
// data-entity-urn; with neither the card is dropped. LinkedIn rarely puts
// salary on cards, so no salary is parsed here.
func (s *Scraper) extractCard(ctx context.Context, card *goquery.Selection, fallbackLocation string) *scraper.JobData {
	titleEl := card.Find("a[class*=base-card__full-link], h3[class*=base-search-card__title] a, a[href*='/jobs/view/']").First()
	if titleEl.Length() == 0 {
		titleEl = card.Find("h3[class*=base-search-card__title]").First()
	}
	if titleEl.Length() == 0 {
		return nil
	}

	title := scraper.CleanText(titleEl.Text())

	jobURL := ""
	if href, ok := titleEl.Attr("href"); ok {
		jobURL = scraper.NormalizeURL(href, s.baseURL)
	}

	externalID := ""
	if jobURL != "" {
		if m := viewPattern.FindStringSubmatch(jobURL); m != nil {
			externalID = m[1]
		}
	}
	if externalID == "" {
		if urn, ok := card.Attr("data-entity-urn"); ok {
			if m := urnPattern.FindStringSubmatch(urn); m != nil {
				externalID = m[1]
			}
		}
	}
	if externalID == "" {
		return nil
	}

	companyName := "Unknown Company"
	if el := card.Find("h4[class*=base-search-card__subtitle], a[class*=hidden-nested-link], span[class*=company-name]").First(); el.Length() > 0 {
		companyName = scraper.CleanText(el.Text())
	}

	location := fallbackLocation
	if el := card.Find("span[class*=job-search-card__location]").First(); el.Length() > 0 {
		location = scraper.CleanText(el.Text())
	}

	description := ""
	if el := card.Find("p[class*=job-search-card__snippet]").First(); el.Length() > 0 {
		description = scraper.CleanText(el.Text())
	}

	if jobURL != "" {
		if full, err := s.fetchDescription(ctx, jobURL); err == nil && full != "" {
			description = full
		}
	}

	var postedDate *time.Time
	if el := card.Find("time").First(); el.Length() > 0 {
		if attr, ok := el.Attr("datetime"); ok {
			if ts, err := time.Parse("2006-01-02", attr); err == nil {
				postedDate = &ts
			}
		}
		if postedDate == nil {
			postedDate = scraper.ParseRelativeDate(el.Text(), s.now())
		}
	}

	return &scraper.JobData{
		ExternalID:      "linkedin_" + externalID,
		Title:           title,
		CompanyName:     companyName,
		Description:     description,
		Location:        location,
		URL:             jobURL,
		Source:          models.SourceLinkedIn,
		JobType:         string(models.JobTypeFullTime),
		ExperienceLevel: filter.ExperienceLevel(title, description),
		SalaryCurrency:  "VND",
		PostedDate:      postedDate,
		IsActive:        true,
	}
}

// fetchDescription visits the job detail page after a polite pause.
// Failure is non-fatal, the card snippet stays in place.
func (s *Scraper) fetchDescription(ctx context.Context, jobURL string) (string, error) {
	if err := sleep(ctx, s.detailDelay); err != nil {
		return "", err
	}

	html, err := s.client.Fetch(ctx, jobURL, s.headers)
	if err != nil {
		log.Printf("[linkedin] detail fetch %s: %v", jobURL, err)
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	container := doc.Find("div[class*=show-more-less-html__markup], div[class*=description__text], section[class*=description]").First()
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
