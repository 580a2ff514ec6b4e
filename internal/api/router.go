package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/edgarvault/internal/api/handler"
	"github.com/timmy/edgarvault/internal/api/middleware"
	"github.com/timmy/edgarvault/internal/config"
	"github.com/timmy/edgarvault/internal/edgar"
	"github.com/timmy/edgarvault/internal/repository"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	filingRepo *repository.FilingRepository,
	jobRepo *repository.JobRepository,
	submissions *edgar.SubmissionsClient,
	serverCfg *config.ServerConfig,
) *gin.Engine {
	// Set Gin mode
	switch serverCfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  serverCfg.CORS.AllowedOrigins,
		AllowAllOrigins: serverCfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	filingHandler := handler.NewFilingHandler(filingRepo)
	jobHandler := handler.NewJobHandler(jobRepo)
	companyHandler := handler.NewCompanyHandler(submissions)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Aggregates
		v1.GET("/stats", filingHandler.GetStats)

		// Filings
		v1.GET("/filings", filingHandler.ListFilings)
		v1.DELETE("/filings/:cik/:accession", filingHandler.DeleteFiling)

		// Companies
		v1.GET("/companies/:cik/years/:year", filingHandler.GetCompanyYear)
		v1.GET("/companies/:cik/recent", companyHandler.GetRecentFilings)

		// Crawl runs
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/:id", jobHandler.GetJob)
	}

	return r
}
