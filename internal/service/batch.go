package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/logger"
	"github.com/timmy/edgarvault/internal/repository"
)

// EDGAR's daily index coverage starts mid-1994; the first two quarters of
// that year have no form index files.
const firstIndexedYear = 1994

// RunStats accumulates crawl counters at one level of the hierarchy. File,
// quarter, year, and run totals all use the same shape.
type RunStats struct {
	TotalFound int `json:"total_found"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Errors     int `json:"errors"`
}

// merge folds child counters into the receiver.
func (s *RunStats) merge(other RunStats) {
	s.TotalFound += other.TotalFound
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Errors += other.Errors
}

// BatchDriver walks a year range of daily indexes and feeds every target
// filing through the download orchestrator. The whole crawl runs on a single
// sequential worker so the shared rate limiter fully governs request pacing.
type BatchDriver struct {
	index        *edgar.IndexParser
	orchestrator *DownloadOrchestrator
	jobRepo      *repository.JobRepository
	logger       *logger.Logger
}

// NewBatchDriver creates a batch driver.
// Parameters:
//   - index: daily-index listing and file parser.
//   - orchestrator: per-filing download pipeline.
//   - jobRepo: crawl run record store, may be nil to skip run records.
//   - log: base logger.
// Returns:
//   - *BatchDriver: driver instance.
func NewBatchDriver(index *edgar.IndexParser, orchestrator *DownloadOrchestrator, jobRepo *repository.JobRepository, log *logger.Logger) *BatchDriver {
	return &BatchDriver{
		index:        index,
		orchestrator: orchestrator,
		jobRepo:      jobRepo,
		logger:       log,
	}
}

// DownloadYearRange crawls every quarter of [startYear, endYear] in
// ascending order. Quarters before EDGAR coverage and quarters that have not
// started yet are skipped. A fatal fetch condition aborts the run with
// partial progress already committed.
// Parameters:
//   - ctx: run context; cancellation aborts as a user interrupt.
//   - startYear, endYear: inclusive calendar year range.
// Returns:
//   - *RunStats: aggregate counters for the whole run.
//   - error: *FatalError if the run was aborted.
func (d *BatchDriver) DownloadYearRange(ctx context.Context, startYear, endYear int) (*RunStats, error) {
	if startYear > endYear {
		return nil, fmt.Errorf("invalid year range: %d > %d", startYear, endYear)
	}

	runID := uuid.New().String()
	ctx = logger.SetRunID(ctx, runID)

	startedAt := time.Now()
	job := &domain.CrawlJob{
		ID:        runID,
		StartYear: startYear,
		EndYear:   endYear,
		Status:    domain.JobStatusRunning,
		StartedAt: &startedAt,
	}
	if d.jobRepo != nil {
		if err := d.jobRepo.Create(ctx, job); err != nil {
			d.log(ctx).WithError(err).Warn("Failed to create crawl job record")
		}
	}

	d.log(ctx).WithFields(logger.Fields{
		"start_year": startYear,
		"end_year":   endYear,
	}).Info("Starting crawl")

	total := &RunStats{}
	var runErr error

yearLoop:
	for year := startYear; year <= endYear; year++ {
		yearStats := RunStats{}
		for quarter := 1; quarter <= 4; quarter++ {
			if skip, reason := skipQuarter(year, quarter, time.Now()); skip {
				d.log(ctx).Debugf("Skipping %d Q%d: %s", year, quarter, reason)
				continue
			}

			qStats, err := d.downloadQuarter(ctx, year, quarter)
			yearStats.merge(qStats)
			if err != nil {
				runErr = err
				total.merge(yearStats)
				break yearLoop
			}
		}
		total.merge(yearStats)
		d.logLevelSummary(ctx, fmt.Sprintf("Year %d complete", year), yearStats)
	}

	d.finishJob(ctx, job, total, runErr)
	d.logRunSummary(ctx, startYear, endYear, total, runErr)

	return total, runErr
}

// downloadQuarter processes every daily form index file of one quarter.
func (d *BatchDriver) downloadQuarter(ctx context.Context, year, quarter int) (RunStats, error) {
	stats := RunStats{}
	qctx := logger.WithFields(ctx, logger.Fields{"year": year, "quarter": quarter})

	idxFiles, err := d.index.ListIndexFiles(qctx, year, quarter)
	if err != nil {
		return stats, err
	}
	if len(idxFiles) == 0 {
		d.log(qctx).Warnf("No index files found for %d Q%d", year, quarter)
		return stats, nil
	}

	d.log(qctx).WithField(logger.FieldCount, len(idxFiles)).Infof("Processing %d Q%d", year, quarter)

	for _, idxURL := range idxFiles {
		fileStats, err := d.downloadIndexFile(qctx, idxURL)
		stats.merge(fileStats)
		if err != nil {
			return stats, err
		}
	}

	d.logLevelSummary(qctx, fmt.Sprintf("Quarter %d Q%d complete", year, quarter), stats)
	return stats, nil
}

// downloadIndexFile processes every target filing listed in one daily index
// file.
func (d *BatchDriver) downloadIndexFile(ctx context.Context, idxURL string) (RunStats, error) {
	stats := RunStats{}

	filings, err := d.index.ParseIndexFile(ctx, idxURL)
	if err != nil {
		return stats, err
	}
	stats.TotalFound = len(filings)

	for _, desc := range filings {
		result, err := d.orchestrator.Download(ctx, desc)
		if err != nil {
			if edgar.IsFatal(err) {
				stats.Errors++
				return stats, err
			}
			d.log(ctx).WithError(err).WithFields(logger.Fields{
				logger.FieldCIK:       desc.CIK,
				logger.FieldAccession: desc.AccessionNumber,
			}).Error("Filing failed")
			stats.Errors++
			continue
		}

		switch {
		case result.Skipped:
			stats.Skipped++
		case len(result.Downloaded) > 0:
			stats.Downloaded++
		default:
			stats.Failed++
		}
	}

	d.log(ctx).WithFields(logger.Fields{
		logger.FieldCount: stats.TotalFound,
		"downloaded":      stats.Downloaded,
		"skipped":         stats.Skipped,
	}).Debugf("Index file done: %s", idxURL[strings.LastIndex(idxURL, "/")+1:])

	return stats, nil
}

// finishJob closes out the crawl job record.
func (d *BatchDriver) finishJob(ctx context.Context, job *domain.CrawlJob, stats *RunStats, runErr error) {
	if d.jobRepo == nil {
		return
	}

	now := time.Now()
	job.CompletedAt = &now
	job.TotalFound = stats.TotalFound
	job.Downloaded = stats.Downloaded
	job.Skipped = stats.Skipped
	job.Failed = stats.Failed
	job.Errors = stats.Errors

	if runErr != nil {
		job.Status = domain.JobStatusFailed
		job.ErrorLog = runErr.Error()
	} else {
		job.Status = domain.JobStatusCompleted
	}

	if err := d.jobRepo.Update(ctx, job); err != nil {
		d.log(ctx).WithError(err).Warn("Failed to update crawl job record")
	}
}

func (d *BatchDriver) logLevelSummary(ctx context.Context, label string, stats RunStats) {
	d.log(ctx).WithFields(logger.Fields{
		"total_found": stats.TotalFound,
		"downloaded":  stats.Downloaded,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"errors":      stats.Errors,
	}).Info(label)
}

func (d *BatchDriver) logRunSummary(ctx context.Context, startYear, endYear int, stats *RunStats, runErr error) {
	log := d.log(ctx).WithFields(logger.Fields{
		"start_year":  startYear,
		"end_year":    endYear,
		"total_found": stats.TotalFound,
		"downloaded":  stats.Downloaded,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"errors":      stats.Errors,
	})
	if runErr != nil {
		log.WithError(runErr).Error("Crawl aborted")
		return
	}
	log.Info("Crawl complete")
}

func (d *BatchDriver) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return d.logger
}

// skipQuarter reports whether a quarter has no index data to crawl: either
// before EDGAR's daily index coverage begins, or not yet started.
func skipQuarter(year, quarter int, now time.Time) (bool, string) {
	if year < firstIndexedYear {
		return true, "before daily index coverage"
	}
	if year == firstIndexedYear && quarter <= 2 {
		return true, "before daily index coverage"
	}

	currentQuarter := (int(now.Month())-1)/3 + 1
	if year > now.Year() || (year == now.Year() && quarter > currentQuarter) {
		return true, "quarter has not started"
	}

	return false, ""
}
