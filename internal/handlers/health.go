package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

type HealthHandler struct {
	startTime   time.Time
	environment string
	checks      map[string]ReadinessCheck
}

func NewHealthHandler(environment string, checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		startTime:   time.Now(),
		environment: environment,
		checks:      checks,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"service":     "stockcast-go-api",
		"version":     Version,
		"environment": h.environment,
		"uptime":      time.Since(h.startTime).String(),
		"time":        time.Now(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := fiber.StatusOK
	results := fiber.Map{"api": "ok"}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": results,
	})
}
