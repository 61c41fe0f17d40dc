package handlers

import "github.com/gofiber/fiber/v2"

// Version is reported by / and /health
const Version = "1.0.0"

// Register mounts every route on app
func Register(app *fiber.App, forecast *ForecastHandler, health *HealthHandler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Stockcast API",
			"version": Version,
			"status":  "running",
		})
	})

	app.Get("/health", health.Health)
	app.Get("/health/ready", health.Ready)

	app.Get("/predict", forecast.Predict)
	app.Post("/predict", forecast.Predict)

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Get("/tickers", forecast.GetTickers)
	v1.Get("/tickers/:symbol", forecast.GetTickerData)
	v1.Post("/admin/refresh", forecast.RefreshCache)
}
