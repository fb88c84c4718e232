// Package scheduler wires up the cron job that periodically runs a full
// scrape across every registered source.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

// Notifier receives each scheduled run's outcome: one message per newly
// inserted listing, a run summary, and any run errors. The Telegram
// reporter satisfies it; a nil Notifier disables notifications.
type Notifier interface {
	SendJob(job scraper.JobData) error
	SendSummary(result *scraper.RunResult) error
	SendError(err error) error
}

// Scheduler wraps robfig/cron and manages the scrape loop.
type Scheduler struct {
	cron        *cron.Cron
	manager     *scraper.Manager
	notifier    Notifier
	keywords    []string
	location    string
	maxPages    int
	spec        string        // cron spec, e.g. "@every 6h"
	notifyDelay time.Duration // pause between job messages to avoid 429
}

// New creates a Scheduler that fires every intervalHours hours.
func New(manager *scraper.Manager, notifier Notifier, keywords []string, location string, maxPages, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLogger(cron.DefaultLogger)),
		manager:     manager,
		notifier:    notifier,
		keywords:    keywords,
		location:    location,
		maxPages:    maxPages,
		spec:        fmt.Sprintf("@every %dh", intervalHours),
		notifyDelay: time.Second,
	}
}

// Start registers the job and starts the scheduler. Also runs one scrape
// immediately so the database is populated without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runScrape(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runScrape(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runScrape(ctx context.Context) {
	log.Println("[scheduler] Scrape cycle started")

	result := s.manager.ScrapeAll(ctx, s.keywords, s.location, s.maxPages, nil)

	log.Printf("[scheduler] Scrape cycle complete: %d found, %d unique, %d saved (%d new)",
		result.TotalJobsFound, result.UniqueJobs, result.JobsSaved, len(result.NewJobs))

	if s.notifier == nil {
		return
	}

	for _, job := range result.NewJobs {
		if err := s.notifier.SendJob(job); err != nil {
			log.Printf("[scheduler] notify job %s: %v", job.ExternalID, err)
		}
		time.Sleep(s.notifyDelay)
	}

	if err := s.notifier.SendSummary(result); err != nil {
		log.Printf("[scheduler] notify summary: %v", err)
	}

	if len(result.Errors) > 0 {
		if err := s.notifier.SendError(errors.New(strings.Join(result.Errors, "; "))); err != nil {
			log.Printf("[scheduler] notify errors: %v", err)
		}
	}
}
