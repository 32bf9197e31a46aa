package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the banner route
const Version = "1.0.0"

// NewRouter wires every route onto engine. metricsPath may be empty to
// leave the Prometheus endpoint unexposed.
func NewRouter(engine *gin.Engine, h *Handler, metricsPath string) *gin.Engine {
	if h.Metrics != nil {
		engine.Use(h.MetricsMiddleware())
		if metricsPath != "" {
			engine.GET(metricsPath, gin.WrapH(h.Metrics.Handler()))
		}
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Trip Planner API",
			"version": Version,
		})
	})

	engine.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := engine.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.GET("/runs", h.ListRuns)
		admin.GET("/runs/:snapshot", h.GetRun)
	}

	// Planning Endpoints
	api := engine.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/plan", h.Plan)
		api.POST("/plan/csv", h.PlanCSV)
		api.POST("/validate", h.Validate)
		api.GET("/usage", h.GetMyUsage)
	}

	return engine
}
