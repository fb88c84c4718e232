package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tuananh131001/ai-job-search/internal/config"
	"github.com/tuananh131001/ai-job-search/internal/database"
	"github.com/tuananh131001/ai-job-search/internal/handlers"
	"github.com/tuananh131001/ai-job-search/internal/models"
	"github.com/tuananh131001/ai-job-search/internal/reporter"
	"github.com/tuananh131001/ai-job-search/internal/scheduler"
	"github.com/tuananh131001/ai-job-search/internal/scraper"
	"github.com/tuananh131001/ai-job-search/internal/scraper/indeed"
	"github.com/tuananh131001/ai-job-search/internal/scraper/linkedin"
)

func main() {
	cfg := config.Load()
	log.Printf("🔧 Config loaded. Keywords: %v", cfg.Keywords)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer repo.Close()
	log.Println("✅ Database connected.")

	registry := scraper.Registry{
		models.SourceIndeed:   indeed.New,
		models.SourceLinkedIn: linkedin.New,
	}
	manager := scraper.NewManager(registry, repo)

	var notifier scheduler.Notifier
	if cfg.Notifications() {
		tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram reporter disabled: %v", err)
		} else {
			notifier = tg
			log.Println("🤖 Telegram reporter initialized.")
		}
	}

	sched := scheduler.New(manager, notifier, cfg.Keywords, cfg.Location, cfg.MaxPages, cfg.ScrapeIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	scraperHandler := handlers.NewScraperHandler(manager)

	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		scrapers := api.Group("/scrapers")
		{
			scrapers.POST("/scrape", scraperHandler.ScrapeJobs)
			scrapers.GET("/status", scraperHandler.GetStatus)
			scrapers.GET("/sources", scraperHandler.GetSources)
			scrapers.GET("/keywords", scraperHandler.GetKeywords)
			scrapers.POST("/test/:source", scraperHandler.TestScraper)
		}
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("🚀 Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
