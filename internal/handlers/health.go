package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BusselW/DDH3/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout bounds the backend ping of the readiness check
	HealthCheckTimeout = 3 * time.Second
)

// Pinger is satisfied by every list backend client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	backend     Pinger
	backendName string
	startTime   time.Time
	env         string
}

// NewHealthHandler creates a HealthHandler for the named list backend.
func NewHealthHandler(backend Pinger, backendName, env string) *HealthHandler {
	return &HealthHandler{
		backend:     backend,
		backendName: backendName,
		startTime:   time.Now(),
		env:         env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status        string `json:"status"`
	Backend       string `json:"backend"`
	BackendStatus string `json:"backend_status"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Backend     string `json:"backend"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. It checks no dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready.
// Returns 503 when the list backend does not answer a ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Backend health check failed", err, map[string]interface{}{
				"backend": h.backendName,
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:        "not_ready",
			Backend:       h.backendName,
			BackendStatus: "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:        "ready",
		Backend:       h.backendName,
		BackendStatus: "connected",
	})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Backend:     h.backendName,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
