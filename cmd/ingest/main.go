package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/edgarvault/internal/config"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/logger"
	"github.com/timmy/edgarvault/internal/repository"
	"github.com/timmy/edgarvault/internal/service"
	"github.com/timmy/edgarvault/internal/storage"
)

func main() {
	// Initialize logger first (with defaults, stdout + rotating file)
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Parse command line flags
	startYear := flag.Int("start-year", 0, "First calendar year to crawl (defaults to config)")
	endYear := flag.Int("end-year", 0, "Last calendar year to crawl (defaults to config)")
	deleteCIK := flag.String("delete-cik", "", "Remove one completion record: CIK (requires -delete-accession)")
	deleteAccession := flag.String("delete-accession", "", "Remove one completion record: accession number")
	showStats := flag.Bool("stats", false, "Print store statistics and exit")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if *startYear == 0 {
		*startYear = cfg.Crawl.StartYear
	}
	if *endYear == 0 {
		*endYear = cfg.Crawl.EndYear
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	filingRepo := repository.NewFilingRepository(db)
	jobRepo := repository.NewJobRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Administrative modes short-circuit the crawl
	if *showStats {
		printStats(ctx, appLogger, filingRepo)
		return
	}
	if *deleteCIK != "" || *deleteAccession != "" {
		deleteRecord(ctx, appLogger, filingRepo, *deleteCIK, *deleteAccession)
		return
	}

	// Initialize the fetch layer
	client, err := edgar.NewClient(&edgar.ClientConfig{
		UserAgent:         cfg.Edgar.UserAgent,
		Timeout:           time.Duration(cfg.Edgar.RequestTimeoutSecs) * time.Second,
		RateLimitCapacity: cfg.Edgar.RateLimitCapacity,
		RateLimitRefill:   float64(cfg.Edgar.RateLimitRefill),
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize fetch client")
	}

	store, err := storage.NewLocalStore(cfg.Storage.BaseDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize document store")
	}

	indexParser := edgar.NewIndexParser(client, cfg.Edgar.DailyIndexBaseURL, cfg.Edgar.ArchiveBaseURL)
	discovery := edgar.NewDocumentDiscovery(client)
	fiscal := edgar.NewFiscalExtractor(client)

	orchestrator := service.NewDownloadOrchestrator(filingRepo, discovery, fiscal, client, store, appLogger)
	driver := service.NewBatchDriver(indexParser, orchestrator, jobRepo, appLogger)

	appLogger.WithFields(logger.Fields{
		"start_year": *startYear,
		"end_year":   *endYear,
		"output_dir": cfg.Storage.BaseDir,
	}).Info("Starting crawl")

	stats, err := driver.DownloadYearRange(ctx, *startYear, *endYear)
	if err != nil {
		log := appLogger.WithError(err)
		if stats != nil {
			log = log.WithFields(logger.Fields{
				"downloaded": stats.Downloaded,
				"skipped":    stats.Skipped,
			})
		}
		log.Fatal("Crawl aborted")
	}

	appLogger.WithFields(logger.Fields{
		"total_found": stats.TotalFound,
		"downloaded":  stats.Downloaded,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"errors":      stats.Errors,
	}).Info("Crawl completed")
}

func printStats(ctx context.Context, appLogger *logger.Logger, filingRepo *repository.FilingRepository) {
	stats, err := filingRepo.Stats(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to compute statistics")
	}
	appLogger.WithFields(logger.Fields{
		"total_filings":    stats.TotalFilings,
		"unique_companies": stats.UniqueCompanies,
		"years_covered":    stats.YearsCovered,
	}).Info("Store statistics")
	for form, count := range stats.FormTypes {
		appLogger.WithFields(logger.Fields{
			logger.FieldFormType: form,
			logger.FieldCount:    count,
		}).Info("Form type breakdown")
	}
}

func deleteRecord(ctx context.Context, appLogger *logger.Logger, filingRepo *repository.FilingRepository, cik, accession string) {
	if cik == "" || accession == "" {
		appLogger.Fatal("Both -delete-cik and -delete-accession are required")
	}
	affected, err := filingRepo.Delete(ctx, edgar.PadCIK(cik), accession)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to delete filing record")
	}
	appLogger.WithFields(logger.Fields{
		logger.FieldCIK:       edgar.PadCIK(cik),
		logger.FieldAccession: accession,
		"deleted":             affected,
	}).Info("Filing record removed; it will be re-downloaded on the next run")
}
