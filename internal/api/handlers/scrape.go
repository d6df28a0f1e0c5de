package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
)

// Scraper reads a storefront's public catalog feed
type Scraper interface {
	ScrapeProducts(ctx context.Context, storeDomain string) ([]domain.Product, error)
}

type scrapeRequest struct {
	Domain string `json:"domain"`
}

// HandleScrape handles POST /v1/scrape
func HandleScrape(scraper Scraper, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Domain == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "domain is required"})
			return
		}

		products, err := scraper.ScrapeProducts(c.Request.Context(), req.Domain)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}
