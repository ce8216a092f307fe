package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BusselW/DDH3/internal/services"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Health     *HealthHandler
	Dashboard  *DashboardHandler
	Admin      *AdminHandler
	Principals *PrincipalHandler
}

// ConfigureBinding makes gin's validator report JSON field names, matching
// the validator used by the admin service.
func ConfigureBinding() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(services.JSONFieldName)
	}
}

// RegisterRoutes mounts the probes, the metrics endpoint and the v1 API.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	ConfigureBinding()

	router.GET("/health", h.Health.Health)
	router.GET("/health/ready", h.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", h.Health.Info)

		locations := v1.Group("/locations")
		{
			locations.GET("", h.Dashboard.Locations)
			locations.GET("/:id", h.Dashboard.Location)
			locations.POST("", h.Admin.CreateLocation)
			locations.PATCH("/:id", h.Admin.UpdateLocation)
			locations.DELETE("/:id", h.Admin.DeleteLocation)
		}

		problems := v1.Group("/problems")
		{
			problems.GET("", h.Dashboard.Problems)
			problems.POST("", h.Admin.CreateProblem)
			problems.PATCH("/:id", h.Admin.UpdateProblem)
			problems.DELETE("/:id", h.Admin.DeleteProblem)
		}

		v1.GET("/summary", h.Dashboard.Summary)

		cache := v1.Group("/cache")
		{
			cache.GET("", h.Dashboard.CacheStatus)
			cache.POST("/refresh", h.Dashboard.RefreshCache)
			cache.DELETE("", h.Dashboard.InvalidateCache)
		}

		v1.GET("/principals", h.Principals.Search)
	}
}
