package services

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"time"

	"stockcast-go-api/internal/config"
	"stockcast-go-api/internal/models"
)

// Forecaster is the routine that trains a model and predicts prices. A nil
// error means the result is populated.
type Forecaster interface {
	Predict(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error)
}

// MarketDataSource supplies ticker metadata for enrichment
type MarketDataSource interface {
	Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error)
}

// ForecastError means the forecasting routine produced no result
type ForecastError struct {
	Reason string
}

func (e *ForecastError) Error() string {
	return "Failed to process data: " + e.Reason
}

// ForecastOrchestrator coordinates the forecast generation pipeline
type ForecastOrchestrator struct {
	forecaster        Forecaster
	marketData        MarketDataSource
	cache             *CacheService
	cacheForecasts    bool
	forecastTimeout   time.Duration
	marketDataTimeout time.Duration
}

func NewForecastOrchestrator(cfg *config.Config, forecaster Forecaster, marketData MarketDataSource, cache *CacheService) *ForecastOrchestrator {
	return &ForecastOrchestrator{
		forecaster:        forecaster,
		marketData:        marketData,
		cache:             cache,
		cacheForecasts:    cfg.ForecastCacheEnabled,
		forecastTimeout:   cfg.ForecastTimeout,
		marketDataTimeout: cfg.MarketDataTimeout,
	}
}

// GenerateForecast runs the forecast and attaches market metadata. Only a
// forecasting failure is returned as an error; metadata failures become a
// warning in StockInfo.
func (o *ForecastOrchestrator) GenerateForecast(ctx context.Context, req models.ForecastRequest) (*models.PredictResponse, error) {
	// Step 1: forecast (hard dependency)
	result, err := o.forecast(ctx, req)
	if err != nil {
		return nil, err
	}

	// Step 2: market metadata (soft dependency)
	stockInfo := o.enrich(ctx, req.Ticker)

	return &models.PredictResponse{
		Result:    result,
		StockInfo: stockInfo,
	}, nil
}

// GetStockInfo returns enrichment data for one ticker; failures are errors here
func (o *ForecastOrchestrator) GetStockInfo(ctx context.Context, symbol string) (models.StockInfo, error) {
	meta, err := o.marketData.Lookup(ctx, symbol)
	if err != nil {
		return models.StockInfo{}, err
	}
	if meta == nil {
		return models.StockInfo{}, fmt.Errorf("no market data for %s", symbol)
	}
	return models.NewStockInfo(meta), nil
}

// RefreshCache clears all caches
func (o *ForecastOrchestrator) RefreshCache(ctx context.Context) error {
	return o.cache.Refresh(ctx)
}

func (o *ForecastOrchestrator) forecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	cacheKey := generateCacheKey(req)
	if o.cacheForecasts {
		if cached, found := o.cache.GetForecast(ctx, cacheKey); found {
			return cached, nil
		}
	}

	if o.forecastTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.forecastTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := o.forecaster.Predict(ctx, req)
	if err != nil {
		log.Printf("[forecast] %s %s failed after %s: %v", req.Ticker, req.ModelType, time.Since(start).Round(time.Millisecond), err)
		return nil, &ForecastError{Reason: err.Error()}
	}
	if len(result) == 0 {
		return nil, &ForecastError{Reason: "forecasting routine returned no result"}
	}
	log.Printf("[forecast] %s %s done in %s", req.Ticker, req.ModelType, time.Since(start).Round(time.Millisecond))

	if o.cacheForecasts {
		o.cache.SetForecast(ctx, cacheKey, result)
	}
	return result, nil
}

// enrich never fails: any lookup error or panic becomes a warning record
func (o *ForecastOrchestrator) enrich(ctx context.Context, symbol string) (info models.StockInfo) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[enrich] %s lookup panicked: %v", symbol, r)
			info = models.DegradedStockInfo(fmt.Sprintf("Failed to fetch extra stock info: %v", r))
		}
	}()

	if o.marketDataTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.marketDataTimeout)
		defer cancel()
	}

	meta, err := o.marketData.Lookup(ctx, symbol)
	if err == nil && meta == nil {
		err = fmt.Errorf("no market data for %s", symbol)
	}
	if err != nil {
		log.Printf("[enrich] %s: %v", symbol, err)
		return models.DegradedStockInfo("Failed to fetch extra stock info: " + err.Error())
	}

	return models.NewStockInfo(meta)
}

func generateCacheKey(req models.ForecastRequest) string {
	key := fmt.Sprintf("%s|%s|%s|%s|%d|%d|%d|%d|%d",
		req.Ticker, req.StartDate, req.EndDate, req.ModelType,
		req.LookBack, req.Units, req.Epochs, req.BatchSize, req.ForecastDays)
	return fmt.Sprintf("%x", md5.Sum([]byte(key)))
}
