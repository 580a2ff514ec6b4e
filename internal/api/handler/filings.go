package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/edgarvault/internal/api/middleware"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/repository"
)

// FilingHandler serves read and admin endpoints over the filings table.
type FilingHandler struct {
	filingRepo *repository.FilingRepository
}

// NewFilingHandler creates a new filing handler.
// Parameters:
//   - filingRepo: completion record store.
// Returns:
//   - *FilingHandler: handler instance.
func NewFilingHandler(filingRepo *repository.FilingRepository) *FilingHandler {
	return &FilingHandler{filingRepo: filingRepo}
}

// GetStats returns aggregate counts over the filings table.
// GET /api/v1/stats
func (h *FilingHandler) GetStats(c *gin.Context) {
	stats, err := h.filingRepo.Stats(c.Request.Context())
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to compute filing stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListFilings returns completion records with optional filters.
// GET /api/v1/filings?cik=&start_date=&end_date=&limit=&offset=
func (h *FilingHandler) ListFilings(c *gin.Context) {
	cik := c.Query("cik")
	if cik != "" {
		cik = edgar.PadCIK(cik)
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, err := h.filingRepo.ListFilings(c.Request.Context(),
		cik, c.Query("start_date"), c.Query("end_date"), limit, offset)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to list filings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list filings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filings": records,
		"count":   len(records),
		"limit":   limit,
		"offset":  offset,
	})
}

// GetCompanyYear returns a company's recorded filings for one fiscal year,
// keyed by accession number.
// GET /api/v1/companies/:cik/years/:year
func (h *FilingHandler) GetCompanyYear(c *gin.Context) {
	cik := edgar.PadCIK(c.Param("cik"))
	year := c.Param("year")
	if len(year) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be 4 digits"})
		return
	}

	filings, err := h.filingRepo.FilingsByCompanyYear(c.Request.Context(), cik, year)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to query company year")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query filings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cik":         cik,
		"fiscal_year": year,
		"filings":     filings,
	})
}

// DeleteFiling removes a completion record so the filing is re-downloaded on
// the next run. Staged files are left in place.
// DELETE /api/v1/filings/:cik/:accession
func (h *FilingHandler) DeleteFiling(c *gin.Context) {
	cik := edgar.PadCIK(c.Param("cik"))
	accession := c.Param("accession")

	affected, err := h.filingRepo.Delete(c.Request.Context(), cik, accession)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to delete filing record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete filing"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "filing not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": affected})
}
