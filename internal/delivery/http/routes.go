package http

import (
	"github.com/gin-gonic/gin"

	"github.com/chemdex/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sds := v1.Group("/sds")
		{
			sds.POST("/resolve", handler.ResolveSDS)
			sds.POST("/parse", handler.TriggerParse)
			sds.GET("/status/:id", handler.GetParseStatus)
			sds.POST("/batch", handler.BatchParse)
		}

		// Extraction capability surface, shared with the remote parser
		// client so one chemdex instance can serve as another's parser.
		// Health is aliased here so the client reaches all three
		// endpoints through one base URL.
		v1.GET("/health", handler.HealthCheck)
		v1.POST("/verify-sds", handler.VerifySDS)
		v1.POST("/parse-sds", handler.ParseSDS)
	}

	return router
}
