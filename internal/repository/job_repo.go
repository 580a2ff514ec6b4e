package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/timmy/edgarvault/internal/domain"
)

// JobRepository persists crawl run records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new crawl job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.CrawlJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update saves the current state of a crawl job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to save.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) Update(ctx context.Context, job *domain.CrawlJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Get retrieves a crawl job by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job identifier.
// Returns:
//   - *domain.CrawlJob: the job, or nil if not found.
//   - error: non-nil if the lookup fails.
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.CrawlJob, error) {
	var job domain.CrawlJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the most recent crawl jobs, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of jobs to return.
// Returns:
//   - []domain.CrawlJob: recent jobs.
//   - error: non-nil if the query fails.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]domain.CrawlJob, error) {
	var jobs []domain.CrawlJob
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
