package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/BusselW/DDH3/internal/errors"
	"github.com/BusselW/DDH3/internal/middleware"
	"github.com/BusselW/DDH3/internal/services"
)

// DashboardHandler serves the read side of the dashboard.
type DashboardHandler struct {
	service services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler instance.
func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// LocationsResponse is the body of GET /api/v1/locations.
type LocationsResponse struct {
	Locations []services.EnrichedLocation `json:"locations"`
	Count     int                         `json:"count"`
}

// Locations handles GET /api/v1/locations. refresh=true bypasses the cache.
func (h *DashboardHandler) Locations(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	locations, err := h.service.Locations(c.Request.Context(), refresh)
	if err != nil {
		apierrors.FromError(c, err, "Failed to load locations")
		return
	}

	c.JSON(http.StatusOK, LocationsResponse{
		Locations: locations,
		Count:     len(locations),
	})
}

// Location handles GET /api/v1/locations/:id.
func (h *DashboardHandler) Location(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	loc, err := h.service.Location(c.Request.Context(), id)
	if err != nil {
		apierrors.FromError(c, err, "Failed to load location")
		return
	}

	c.JSON(http.StatusOK, loc)
}

// Problems handles GET /api/v1/problems.
func (h *DashboardHandler) Problems(c *gin.Context) {
	var opts services.FilterOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		apierrors.BindError(c, err, "Invalid query parameters")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Debug("Processing problem query", map[string]interface{}{
			"filters": opts,
		})
	}

	result, err := h.service.Problems(c.Request.Context(), opts)
	if err != nil {
		apierrors.FromError(c, err, "Failed to load problems")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Summary handles GET /api/v1/summary.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		apierrors.FromError(c, err, "Failed to load summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CacheStatus handles GET /api/v1/cache.
func (h *DashboardHandler) CacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CacheStatus())
}

// RefreshCache handles POST /api/v1/cache/refresh.
func (h *DashboardHandler) RefreshCache(c *gin.Context) {
	status, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		apierrors.FromError(c, err, "Failed to refresh dashboard data")
		return
	}

	c.JSON(http.StatusOK, status)
}

// InvalidateCache handles DELETE /api/v1/cache.
func (h *DashboardHandler) InvalidateCache(c *gin.Context) {
	h.service.InvalidateCache()
	c.Status(http.StatusNoContent)
}
