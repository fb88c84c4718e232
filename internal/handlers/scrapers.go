// Package handlers exposes the scraping pipeline over HTTP.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuananh131001/ai-job-search/internal/models"
	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

type ScraperHandler struct {
	Manager *scraper.Manager
}

// NewScraperHandler creates the handler with its orchestrator dependency.
func NewScraperHandler(m *scraper.Manager) *ScraperHandler {
	return &ScraperHandler{Manager: m}
}

// ScrapeRequest is the body of POST /api/scrapers/scrape. All fields are
// optional; zero values fall back to the configured defaults.
type ScrapeRequest struct {
	Keywords []string `json:"keywords"`
	Location string   `json:"location"`
	MaxPages int      `json:"max_pages"`
	Sources  []string `json:"sources"`
}

// ScrapeJobs is the POST /api/scrapers/scrape endpoint. It runs a full
// scrape synchronously and returns the run result, partial failures
// included.
func (h *ScraperHandler) ScrapeJobs(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	// 0 means the field was omitted and the configured default applies
	if req.MaxPages < 0 || req.MaxPages > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_pages must be between 1 and 10, or omitted for the default"})
		return
	}

	var sources []models.JobSource
	for _, s := range req.Sources {
		source := models.JobSource(s)
		if !h.Manager.Known(source) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "Invalid source: " + s,
				"valid_sources": h.Manager.Sources(),
			})
			return
		}
		sources = append(sources, source)
	}

	result := h.Manager.ScrapeAll(c.Request.Context(), req.Keywords, req.Location, req.MaxPages, sources)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetStatus is the GET /api/scrapers/status endpoint.
func (h *ScraperHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Manager.Status(c.Request.Context()))
}

// sourceDescriptions is the static catalog served by GET /api/scrapers/sources.
var sourceDescriptions = map[models.JobSource]string{
	models.SourceIndeed:   "Indeed Vietnam job listings",
	models.SourceLinkedIn: "LinkedIn public job search",
}

// GetSources is the GET /api/scrapers/sources endpoint.
func (h *ScraperHandler) GetSources(c *gin.Context) {
	type sourceInfo struct {
		Name        models.JobSource `json:"name"`
		Description string           `json:"description"`
	}

	var out []sourceInfo
	for _, s := range h.Manager.Sources() {
		out = append(out, sourceInfo{Name: s, Description: sourceDescriptions[s]})
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}

// GetKeywords is the GET /api/scrapers/keywords endpoint.
func (h *ScraperHandler) GetKeywords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default_keywords": scraper.DefaultKeywords,
		"default_location": scraper.DefaultLocation,
	})
}

// TestScraper is the POST /api/scrapers/test/:source endpoint. It runs a
// one-page smoke search against a single source.
func (h *ScraperHandler) TestScraper(c *gin.Context) {
	source := models.JobSource(c.Param("source"))
	if !h.Manager.Known(source) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Invalid source: " + c.Param("source"),
			"valid_sources": h.Manager.Sources(),
		})
		return
	}

	report, err := h.Manager.TestSource(c.Request.Context(), source, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// HealthCheck is the GET /api/health endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
