package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"stockcast-go-api/internal/config"
	"stockcast-go-api/internal/handlers"
	"stockcast-go-api/internal/services"
	"stockcast-go-api/pkg/predictor"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}

	// Initialize services
	cacheService := services.NewCacheService(cfg)
	defer cacheService.Close()

	forecaster := predictor.NewClient(cfg.PythonServiceURL, cfg.ForecastTimeout)
	marketDataService := services.NewMarketDataService(cfg, cacheService)
	forecastOrchestrator := services.NewForecastOrchestrator(cfg, forecaster, marketDataService, cacheService)

	// Initialize handlers
	forecastHandler := handlers.NewForecastHandler(forecastOrchestrator, marketDataService)
	healthHandler := handlers.NewHealthHandler(cfg.Environment, map[string]handlers.ReadinessCheck{
		"forecaster": forecaster.Ping,
		"cache":      cacheService.Ping,
	})

	// Forecasts train a model per request, so the write timeout follows the forecast timeout
	app := fiber.New(fiber.Config{
		Prefork:       false,
		StrictRouting: true,
		CaseSensitive: true,
		ServerHeader:  "Stockcast-API",
		AppName:       "Stockcast v" + handlers.Version,
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  cfg.ForecastTimeout + cfg.MarketDataTimeout + 10*time.Second,
		BodyLimit:     1 * 1024 * 1024,
		ErrorHandler:  handlers.CustomErrorHandler,
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       3600,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitPerMinute,
		Expiration: 1 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	}))

	handlers.Register(app, forecastHandler, healthHandler)

	// Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("[server] Stockcast API started on port %s", cfg.Port)
	log.Printf("[server] environment: %s", cfg.Environment)
	log.Printf("[server] forecasting service: %s", cfg.PythonServiceURL)
	log.Printf("[server] cache backend: %s", cacheService.Backend())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[server] shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[server] shutdown complete")
}
