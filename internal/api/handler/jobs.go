package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/edgarvault/internal/api/middleware"
	"github.com/timmy/edgarvault/internal/repository"
)

// JobHandler serves crawl run records.
type JobHandler struct {
	jobRepo *repository.JobRepository
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - jobRepo: crawl run record store.
// Returns:
//   - *JobHandler: handler instance.
func NewJobHandler(jobRepo *repository.JobRepository) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

// ListJobs returns recent crawl runs, newest first.
// GET /api/v1/jobs?limit=
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 20
	}

	jobs, err := h.jobRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list crawl jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns one crawl run by ID.
// GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobRepo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to load crawl job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}
