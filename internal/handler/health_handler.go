package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandler reports liveness and dependency status.
type HealthHandler struct {
	checks map[string]PingFunc
	now    func() time.Time
}

// NewHealthHandler creates a health handler over the named checks.
func NewHealthHandler(checks map[string]PingFunc) *HealthHandler {
	return &HealthHandler{checks: checks, now: time.Now}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Live is the bare liveness probe.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Health godoc
// @Summary API health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Success:   true,
		Message:   "MediReach API is running",
		Timestamp: h.now().UTC(),
	}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		for name, ping := range h.checks {
			if err := ping(ctx); err != nil {
				resp.Checks[name] = "down"
				resp.Success = false
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if !resp.Success {
		resp.Message = "MediReach API is degraded"
	}
	return c.JSON(status, resp)
}
