package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/edgarvault/internal/api"
	"github.com/timmy/edgarvault/internal/config"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/logger"
	"github.com/timmy/edgarvault/internal/repository"
)

func main() {
	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	filingRepo := repository.NewFilingRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// The API serves mostly local reads; the submissions proxy is the only
	// outbound surface and shares the crawl's rate limit settings.
	client, err := edgar.NewClient(&edgar.ClientConfig{
		UserAgent:         cfg.Edgar.UserAgent,
		Timeout:           time.Duration(cfg.Edgar.RequestTimeoutSecs) * time.Second,
		RateLimitCapacity: cfg.Edgar.RateLimitCapacity,
		RateLimitRefill:   float64(cfg.Edgar.RateLimitRefill),
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize fetch client")
	}
	submissions := edgar.NewSubmissionsClient(client, cfg.Edgar.SubmissionsBaseURL, cfg.Edgar.ArchiveBaseURL)

	// Setup router
	router := api.SetupRouter(filingRepo, jobRepo, submissions, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
