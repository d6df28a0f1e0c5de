package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api/handlers"
	"github.com/souta-ok/storesync/internal/api/middleware"
	"github.com/souta-ok/storesync/internal/auth"
	"github.com/souta-ok/storesync/internal/config"
	"github.com/souta-ok/storesync/internal/repository"
)

// Deps carries everything the route handlers need
type Deps struct {
	Users   handlers.UserService
	Groups  handlers.GroupService
	Scraper handlers.Scraper
	Tokens  *auth.Tokens
	Repos   *repository.Repositories
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Store Sync API",
			"endpoints": []string{
				"GET /health",
				"POST /v1/auth/register",
				"POST /v1/auth/login",
				"POST /v1/scrape",
				"POST /v1/upload",
				"GET /v1/groups",
				"POST /v1/groups",
				"GET /v1/groups/:id",
				"PUT /v1/groups/:id",
				"DELETE /v1/groups/:id",
				"GET /v1/groups/:id/products",
				"POST /v1/groups/:id/sync",
				"POST /v1/share",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.POST("/auth/register", handlers.HandleRegister(deps.Users, deps.Tokens, logger))
		v1.POST("/auth/login", handlers.HandleLogin(deps.Users, deps.Tokens, logger))

		// Everything else requires a session
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(deps.Tokens, deps.Repos, logger))
		{
			authed.POST("/scrape", handlers.HandleScrape(deps.Scraper, logger))
			authed.POST("/upload", handlers.HandleUpload(deps.Groups, logger))
			authed.POST("/share", handlers.HandleShare(deps.Groups, logger))

			authed.GET("/groups", handlers.HandleListGroups(deps.Groups, logger))
			authed.POST("/groups", handlers.HandleCreateGroup(deps.Groups, logger))
			authed.GET("/groups/:id", handlers.HandleGetGroup(deps.Groups, logger))
			authed.PUT("/groups/:id", handlers.HandleUpdateGroup(deps.Groups, logger))
			authed.DELETE("/groups/:id", handlers.HandleDeleteGroup(deps.Groups, logger))
			authed.GET("/groups/:id/products", handlers.HandleGetGroupProducts(deps.Groups, logger))
			authed.POST("/groups/:id/sync", handlers.HandleToggleSync(deps.Groups, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
