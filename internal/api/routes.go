package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mstock/relaydns/internal/api/handlers"
	"github.com/mstock/relaydns/internal/api/middleware"
	"github.com/mstock/relaydns/internal/config"
)

// RegisterRoutes mounts the v1 API onto the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/querylog", h.QueryLog)
}
