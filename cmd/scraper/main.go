package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tuananh131001/ai-job-search/internal/config"
	"github.com/tuananh131001/ai-job-search/internal/database"
	"github.com/tuananh131001/ai-job-search/internal/models"
	"github.com/tuananh131001/ai-job-search/internal/reporter"
	"github.com/tuananh131001/ai-job-search/internal/scraper"
	"github.com/tuananh131001/ai-job-search/internal/scraper/indeed"
	"github.com/tuananh131001/ai-job-search/internal/scraper/linkedin"
)

// One-shot scrape run, suitable for cron outside the server process.
// DATABASE_URL is optional here: without it the run reports results
// without persisting them.
func main() {
	cfg := config.Load()
	log.Printf("🔧 Config loaded. Keywords: %v", cfg.Keywords)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	var store scraper.Store
	if cfg.DatabaseURL != "" {
		repo, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer repo.Close()
		store = repo
		log.Println("✅ Database connected.")
	} else {
		log.Println("ℹ️ No DATABASE_URL set, results will not be persisted.")
	}

	registry := scraper.Registry{
		models.SourceIndeed:   indeed.New,
		models.SourceLinkedIn: linkedin.New,
	}
	manager := scraper.NewManager(registry, store)

	log.Println("🚀 Starting scrape run...")
	result := manager.ScrapeAll(ctx, cfg.Keywords, cfg.Location, cfg.MaxPages, nil)

	log.Printf("📦 Total jobs found: %d", result.TotalJobsFound)
	log.Printf("✨ Unique after dedup: %d", result.UniqueJobs)
	log.Printf("💾 Saved: %d", result.JobsSaved)
	for source, stats := range result.SourceStats {
		log.Printf("  %s: %d matched of %d found (%d pages, success=%v)",
			source, stats.MatchedJobs, stats.JobsFound, stats.PagesScraped, stats.Success)
	}
	for _, e := range result.Errors {
		log.Printf("⚠️ %s", e)
	}

	if cfg.Notifications() {
		tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram reporter unavailable: %v", err)
		} else {
			for _, job := range result.NewJobs {
				log.Printf("  📣 %s @ %s", job.Title, job.CompanyName)
				if err := tg.SendJob(job); err != nil {
					log.Printf("⚠️ Failed to send job to Telegram: %v", err)
				}
				//1 second delay to avoid 429
				time.Sleep(1 * time.Second)
			}
			if err := tg.SendSummary(result); err != nil {
				log.Printf("⚠️ Failed to send summary to Telegram: %v", err)
			}
			if len(result.Errors) > 0 {
				if err := tg.SendError(errors.New(strings.Join(result.Errors, "; "))); err != nil {
					log.Printf("⚠️ Failed to send errors to Telegram: %v", err)
				}
			}
		}
	}

	log.Println("🏁 Execution finished.")
}
