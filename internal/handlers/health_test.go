package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPinger answers Ping with a fixed error and records the deadline it saw.
type stubPinger struct {
	err         error
	hadDeadline bool
}

func (p *stubPinger) Ping(ctx context.Context) error {
	_, p.hadDeadline = ctx.Deadline()
	return p.err
}

func healthRouter(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/health/ready", h.Ready)
	router.GET("/api/v1/info", h.Info)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	router := healthRouter(NewHealthHandler(&stubPinger{err: errors.New("down")}, "sharepoint", "test"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, HealthResponse{Status: "healthy"}, response)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{
			name:           "backend reachable",
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Backend: "sharepoint", BackendStatus: "connected"},
		},
		{
			name:           "backend unreachable",
			pingErr:        errors.New("dial tcp: connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Backend: "sharepoint", BackendStatus: "disconnected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinger := &stubPinger{err: tt.pingErr}
			router := healthRouter(NewHealthHandler(pinger, "sharepoint", "test"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
			assert.True(t, pinger.hadDeadline, "ping runs under the health check timeout")
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	handler := NewHealthHandler(&stubPinger{}, "postgres", "development")
	handler.startTime = time.Now().Add(-26 * time.Hour)
	router := healthRouter(handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response InfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, APIVersion, response.Version)
	assert.Equal(t, "development", response.Environment)
	assert.Equal(t, "postgres", response.Backend)
	assert.Contains(t, response.Uptime, "1d 2h")
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "0h 0m 45s"},
		{"minutes and seconds", 5*time.Minute + 30*time.Second, "0h 5m 30s"},
		{"hours", 2*time.Hour + 15*time.Minute + 45*time.Second, "2h 15m 45s"},
		{"days", 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, "3d 5h 30m 15s"},
		{"exactly one day", 24 * time.Hour, "1d 0h 0m 0s"},
		{"zero", 0, "0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}

func TestReadyResponse_JSON(t *testing.T) {
	data, err := json.Marshal(ReadyResponse{Status: "ready", Backend: "postgres", BackendStatus: "connected"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ready","backend":"postgres","backend_status":"connected"}`, string(data))
}

func BenchmarkHealthHandler_Health(b *testing.B) {
	router := healthRouter(NewHealthHandler(&stubPinger{}, "sharepoint", "test"))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
