package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"stockcast-go-api/internal/models"
	"stockcast-go-api/internal/services"
	"stockcast-go-api/internal/validation"
)

const maxBatchTickers = 50

type ForecastHandler struct {
	orchestrator *services.ForecastOrchestrator
	marketData   *services.MarketDataService
	validator    *validation.RequestValidator
}

func NewForecastHandler(orchestrator *services.ForecastOrchestrator, marketData *services.MarketDataService) *ForecastHandler {
	return &ForecastHandler{
		orchestrator: orchestrator,
		marketData:   marketData,
		validator:    validation.NewRequestValidator(),
	}
}

// Predict handles GET|POST /predict
func (h *ForecastHandler) Predict(c *fiber.Ctx) error {
	req, err := h.validator.Parse(string(c.Request().Header.ContentType()), c.Body())
	if err != nil {
		return respondError(c, err)
	}

	forecast, err := h.orchestrator.GenerateForecast(c.Context(), *req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(forecast)
}

// GetTickerData handles GET /v1/tickers/:symbol
func (h *ForecastHandler) GetTickerData(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	symbol := strings.ToUpper(strings.TrimSpace(utils.CopyString(c.Params("symbol"))))
	if symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Symbol is required",
		})
	}

	info, err := h.orchestrator.GetStockInfo(ctx, symbol)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Ticker not found: " + err.Error(),
		})
	}

	return c.JSON(info)
}

// GetTickers handles GET /v1/tickers?symbols=AAPL,MSFT
func (h *ForecastHandler) GetTickers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	var symbols []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(utils.CopyString(c.Query("symbols")), ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}

	if len(symbols) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Please provide at least one ticker symbol",
		})
	}
	if len(symbols) > maxBatchTickers {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Maximum 50 tickers allowed per request",
		})
	}

	data, err := h.marketData.FetchBatch(ctx, symbols)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	infos := make(map[string]models.StockInfo, len(data))
	for symbol, meta := range data {
		infos[symbol] = models.NewStockInfo(meta)
	}
	return c.JSON(infos)
}

// RefreshCache handles POST /v1/admin/refresh
func (h *ForecastHandler) RefreshCache(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
	defer cancel()

	if err := h.orchestrator.RefreshCache(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Failed to refresh cache: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Cache refreshed successfully",
		"time":    time.Now(),
	})
}

// respondError writes {error} with the status the failure calls for
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest

	var vErr *validation.Error
	if errors.As(err, &vErr) {
		status = vErr.Status
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: err.Error(),
	})
}

// CustomErrorHandler handles errors that escaped a handler, including
// recovered panics
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusBadRequest

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error: err.Error(),
	})
}
