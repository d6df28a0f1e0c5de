package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api"
	"github.com/souta-ok/storesync/internal/auth"
	"github.com/souta-ok/storesync/internal/config"
	"github.com/souta-ok/storesync/internal/dispatch"
	"github.com/souta-ok/storesync/internal/repository/postgres"
	"github.com/souta-ok/storesync/internal/service"
	"github.com/souta-ok/storesync/internal/shopify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting Store Sync API server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories and services
	repos := postgres.NewRepositories(db, logger)
	client := shopify.NewClient(cfg.Shopify.APIVersion, logger)
	dispatcher := dispatch.NewDispatcher(client, cfg.Shopify.StoreRPS, cfg.Shopify.MaxInFlight, logger)
	syncManager := service.NewSyncManager(repos, client, dispatcher, cfg.Sync.PollInterval, logger)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	deps := api.Deps{
		Users:   service.NewUserService(repos, cfg.Auth.BcryptCost, logger),
		Groups:  service.NewGroupService(repos, client, dispatcher, syncManager, logger),
		Scraper: client,
		Tokens:  tokens,
		Repos:   repos,
	}

	// Initialize router
	router := api.NewRouter(cfg, deps, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Resume sync loops for groups that were active before the last restart
	if err := syncManager.Resume(context.Background()); err != nil {
		logger.Error("Failed to resume sync loops", zap.Error(err))
	}

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	syncManager.Shutdown()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
