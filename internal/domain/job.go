package domain

import "time"

// JobStatus represents the status of a crawl run.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// CrawlJob records one batch run over a year range and its progress counters.
// Counters here are informational; the filings table alone decides what has
// been downloaded.
type CrawlJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	StartYear   int        `gorm:"not null" json:"start_year"`
	EndYear     int        `gorm:"not null" json:"end_year"`
	Status      JobStatus  `gorm:"default:pending" json:"status"`
	TotalFound  int        `gorm:"default:0" json:"total_found"`
	Downloaded  int        `gorm:"default:0" json:"downloaded"`
	Skipped     int        `gorm:"default:0" json:"skipped"`
	Failed      int        `gorm:"default:0" json:"failed"`
	Errors      int        `gorm:"default:0" json:"errors"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorLog    string     `json:"error_log,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CrawlJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (CrawlJob) TableName() string {
	return "crawl_jobs"
}
