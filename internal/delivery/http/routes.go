package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/glutenvergelijker/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}

		view := v1.Group("/view")
		{
			view.GET("", handler.GetView)
			view.GET("/next", handler.NextPage)
			view.PUT("/criteria", handler.UpdateCriteria)
			view.POST("/search", handler.Search)
			view.POST("/reset", handler.ResetFilters)
			view.POST("/favorites-only", handler.ToggleFavoritesOnly)
		}

		favorites := v1.Group("/favorites")
		{
			favorites.GET("", handler.ListFavorites)
			favorites.POST("/:id/toggle", handler.ToggleFavorite)
		}

		v1.GET("/stats", handler.Stats)
		v1.POST("/catalog/refresh", handler.RefreshCatalog)
	}

	return router
}
