package api

import (
	"github.com/gin-gonic/gin"

	"dealhive/internal/config"
	"dealhive/internal/types"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger types.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v := router.Group("/api")
	{
		v.GET("/search", handler.Search)
		v.POST("/search", handler.SearchJSON)

		stores := v.Group("/stores")
		{
			stores.GET("", handler.ListStores)
			stores.GET("/:store/search", handler.SearchStore)
		}
	}

	return router
}
