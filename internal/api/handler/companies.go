package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/edgarvault/internal/api/middleware"
	"github.com/timmy/edgarvault/internal/domain"
	"github.com/timmy/edgarvault/internal/edgar"
)

// CompanyHandler serves live lookups against the submissions API.
type CompanyHandler struct {
	submissions *edgar.SubmissionsClient
}

// NewCompanyHandler creates a new company handler.
// Parameters:
//   - submissions: submissions API client.
// Returns:
//   - *CompanyHandler: handler instance.
func NewCompanyHandler(submissions *edgar.SubmissionsClient) *CompanyHandler {
	return &CompanyHandler{submissions: submissions}
}

// GetRecentFilings proxies a company's recent-filings list, optionally
// filtered to the target form set.
// GET /api/v1/companies/:cik/recent?forms_only=true
func (h *CompanyHandler) GetRecentFilings(c *gin.Context) {
	cik := edgar.PadCIK(c.Param("cik"))

	filings, err := h.submissions.RecentFilings(c.Request.Context(), cik)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Submissions lookup aborted")
		c.JSON(http.StatusBadGateway, gin.H{"error": "submissions lookup failed"})
		return
	}

	if c.Query("forms_only") == "true" {
		filtered := filings[:0]
		for _, f := range filings {
			if domain.IsTargetForm(f.FormType) {
				filtered = append(filtered, f)
			}
		}
		filings = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"cik":     cik,
		"filings": filings,
		"count":   len(filings),
	})
}
