package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", NewHealthHandler("test", nil).Health)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, status)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, Version, resp["version"])
	assert.Equal(t, "test", resp["environment"])
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]ReadinessCheck
		status int
		state  string
	}{
		{"all up", map[string]ReadinessCheck{"cache": ok, "forecaster": ok}, http.StatusOK, "ready"},
		{"forecaster down", map[string]ReadinessCheck{"cache": ok, "forecaster": down}, http.StatusServiceUnavailable, "degraded"},
		{"no checks", nil, http.StatusOK, "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health/ready", NewHealthHandler("test", tt.checks).Ready)

			status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.status, status)

			var resp struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &resp))
			assert.Equal(t, tt.state, resp.Status)
			assert.Equal(t, "ok", resp.Checks["api"])
			for name := range tt.checks {
				assert.Contains(t, resp.Checks, name)
			}
		})
	}
}

func TestRoot(t *testing.T) {
	app := newTestApp(t, &stubForecaster{}, &stubProvider{})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, Version)
}
