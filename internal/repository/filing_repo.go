package repository

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/edgarvault/internal/domain"
)

// cacheSizeLimit bounds the in-memory existence cache. Entries past the cap
// are simply not added; the cache is a speed optimization for batch checks,
// never the source of truth.
const cacheSizeLimit = 10000

// FilingRepository owns the persisted completion state of the crawl. A row
// in the filings table means the filing's documents were fully staged to
// disk at least once; its absence means the filing must be (re)downloaded.
type FilingRepository struct {
	db *gorm.DB

	mu    sync.Mutex
	cache map[string]bool // filing_id -> downloaded, populated lazily
}

// NewFilingRepository creates a new FilingRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *FilingRepository: repository instance bound to db.
func NewFilingRepository(db *gorm.DB) *FilingRepository {
	return &FilingRepository{
		db:    db,
		cache: make(map[string]bool),
	}
}

// IsDownloaded checks whether a filing has a completion record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cik: zero-padded 10-digit CIK.
//   - accessionNumber: accession number with dashes.
// Returns:
//   - bool: true if the filing was recorded as downloaded.
//   - error: non-nil if the lookup fails.
func (r *FilingRepository) IsDownloaded(ctx context.Context, cik, accessionNumber string) (bool, error) {
	filingID := domain.FilingID(cik, accessionNumber)

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.FilingRecord{}).
		Where("filing_id = ?", filingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// BatchCheck resolves many filing IDs in a single IN query, shortcut by the
// in-memory cache for IDs already seen this run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filingIDs: composite identities to check.
// Returns:
//   - map[string]bool: downloaded state per filing ID.
//   - error: non-nil if the query fails.
func (r *FilingRepository) BatchCheck(ctx context.Context, filingIDs []string) (map[string]bool, error) {
	results := make(map[string]bool, len(filingIDs))
	if len(filingIDs) == 0 {
		return results, nil
	}

	var uncached []string
	r.mu.Lock()
	for _, id := range filingIDs {
		if downloaded, ok := r.cache[id]; ok {
			results[id] = downloaded
		} else {
			uncached = append(uncached, id)
		}
	}
	r.mu.Unlock()

	if len(uncached) == 0 {
		return results, nil
	}

	var found []string
	if err := r.db.WithContext(ctx).Model(&domain.FilingRecord{}).
		Where("filing_id IN ?", uncached).
		Pluck("filing_id", &found).Error; err != nil {
		return nil, fmt.Errorf("batch existence check failed: %w", err)
	}

	foundSet := make(map[string]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}

	r.mu.Lock()
	for _, id := range uncached {
		downloaded := foundSet[id]
		results[id] = downloaded
		if len(r.cache) < cacheSizeLimit {
			r.cache[id] = downloaded
		}
	}
	r.mu.Unlock()

	return results, nil
}

// Add upserts a completion record keyed by filing_id. Callers must only
// invoke this after every planned document for the filing has been written
// to disk, so a crash mid-download never produces a false complete record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - record: completion record to persist.
// Returns:
//   - error: non-nil if the upsert fails; callers log and continue.
func (r *FilingRepository) Add(ctx context.Context, record *domain.FilingRecord) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filing_id"}},
		UpdateAll: true,
	}).Create(record).Error; err != nil {
		return err
	}

	r.mu.Lock()
	if len(r.cache) < cacheSizeLimit || r.cache[record.FilingID] {
		r.cache[record.FilingID] = true
	}
	r.mu.Unlock()

	return nil
}

// Delete removes a filing's completion record, making it eligible for
// re-download on the next run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cik: zero-padded 10-digit CIK.
//   - accessionNumber: accession number with dashes.
// Returns:
//   - int64: number of rows removed (0 or 1).
//   - error: non-nil if the delete fails.
func (r *FilingRepository) Delete(ctx context.Context, cik, accessionNumber string) (int64, error) {
	filingID := domain.FilingID(cik, accessionNumber)

	result := r.db.WithContext(ctx).Delete(&domain.FilingRecord{}, "filing_id = ?", filingID)
	if result.Error != nil {
		return 0, result.Error
	}

	r.mu.Lock()
	delete(r.cache, filingID)
	r.mu.Unlock()

	return result.RowsAffected, nil
}

// Stats aggregates the persisted completion state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - *domain.FilingStats: totals and per-form counts.
//   - error: non-nil if a query fails.
func (r *FilingRepository) Stats(ctx context.Context) (*domain.FilingStats, error) {
	stats := &domain.FilingStats{FormTypes: make(map[string]int64)}

	row := r.db.WithContext(ctx).Model(&domain.FilingRecord{}).
		Select("COUNT(*), COUNT(DISTINCT cik), COUNT(DISTINCT fiscal_year)").
		Row()
	if err := row.Scan(&stats.TotalFilings, &stats.UniqueCompanies, &stats.YearsCovered); err != nil {
		return nil, fmt.Errorf("stats totals query failed: %w", err)
	}

	type formCount struct {
		FormType string
		Count    int64
	}
	var counts []formCount
	if err := r.db.WithContext(ctx).Model(&domain.FilingRecord{}).
		Select("form_type, COUNT(*) as count").
		Group("form_type").
		Order("count DESC").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("stats form breakdown query failed: %w", err)
	}
	for _, c := range counts {
		stats.FormTypes[c.FormType] = c.Count
	}

	return stats, nil
}

// FilingsByCompanyYear returns all recorded filings for one company and
// fiscal year, keyed by accession number.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cik: zero-padded 10-digit CIK.
//   - fiscalYear: 4-digit fiscal year.
// Returns:
//   - map[string]domain.CompanyYearFiling: accession -> form/period.
//   - error: non-nil if the query fails.
func (r *FilingRepository) FilingsByCompanyYear(ctx context.Context, cik, fiscalYear string) (map[string]domain.CompanyYearFiling, error) {
	var records []domain.FilingRecord
	if err := r.db.WithContext(ctx).
		Select("accession_number", "form_type", "fiscal_period").
		Where("cik = ? AND fiscal_year = ?", cik, fiscalYear).
		Find(&records).Error; err != nil {
		return nil, err
	}

	result := make(map[string]domain.CompanyYearFiling, len(records))
	for _, rec := range records {
		result[rec.AccessionNumber] = domain.CompanyYearFiling{
			FormType:     rec.FormType,
			FiscalPeriod: rec.FiscalPeriod,
		}
	}
	return result, nil
}

// ListFilings retrieves completion records with optional filters.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cik: filter by company; empty means all.
//   - startDate, endDate: inclusive filing-date bounds (YYYY-MM-DD); empty skips.
//   - limit, offset: pagination.
// Returns:
//   - []domain.FilingRecord: matching records, newest filing date first.
//   - error: non-nil if the query fails.
func (r *FilingRepository) ListFilings(ctx context.Context, cik, startDate, endDate string, limit, offset int) ([]domain.FilingRecord, error) {
	query := r.db.WithContext(ctx).Model(&domain.FilingRecord{})
	if cik != "" {
		query = query.Where("cik = ?", cik)
	}
	if startDate != "" {
		query = query.Where("filing_date >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("filing_date <= ?", endDate)
	}

	var records []domain.FilingRecord
	if err := query.
		Order("filing_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
