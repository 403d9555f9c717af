package api

import (
	"doc-compliance-checker/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes. A nil validator leaves the API open.
func SetupRoutes(handlers *Handlers, validator middleware.TokenValidator) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20

	// Add CORS middleware
	router.Use(corsMiddleware())

	router.GET("/", handlers.RootHandler)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	protected := router.Group("/")
	if validator != nil {
		protected.Use(middleware.Authenticate(validator))
	}
	{
		protected.POST("/check-compliance/", handlers.CheckComplianceHandler)
		protected.GET("/results/:task_id", handlers.GetResultsHandler)
		protected.GET("/results/:task_id/watch", handlers.WatchResultsHandler)
		protected.GET("/results/:task_id/report.pdf", handlers.ReportPDFHandler)
		protected.POST("/modify-document/:task_id", handlers.ModifyDocumentHandler)
	}

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
