package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medireach/internal/errors"
)

func TestHealthHandler_Live(t *testing.T) {
	h := NewHealthHandler(nil)
	c, rec := newRequest(newEcho(), http.MethodGet, "/healthz", "")
	require.NoError(t, h.Live(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		ping       PingFunc
		wantStatus int
		wantCheck  string
	}{
		{"database up", func(context.Context) error { return nil }, http.StatusOK, "ok"},
		{"database down", func(context.Context) error { return errors.New("dial tcp: refused") }, http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(map[string]PingFunc{"database": tt.ping})
			c, rec := newRequest(newEcho(), http.MethodGet, "/api/health", "")
			require.NoError(t, h.Health(c))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus == http.StatusOK, resp.Success)
			assert.Equal(t, tt.wantCheck, resp.Checks["database"])
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"echo string message", echo.NewHTTPError(http.StatusNotFound, "route missing"), http.StatusNotFound, "NOT_FOUND", "route missing"},
		{"echo sentinel", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed"},
		{"body too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request Entity Too Large"},
		{"structured body", echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{Error: "slow down", Code: "RATE_LIMITED"}), http.StatusTooManyRequests, "RATE_LIMITED", "slow down"},
		{"domain error", apperrors.ErrAppointmentNotFound, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", "appointment not found"},
		{"internal details hidden", echo.NewHTTPError(http.StatusInternalServerError, "pq: relation missing"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newRequest(newEcho(), http.MethodGet, "/api/anything", "")
			HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	c, rec := newRequest(newEcho(), http.MethodHead, "/api/anything", "")
	HTTPErrorHandler(echo.ErrNotFound, c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
