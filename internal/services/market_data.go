package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"stockcast-go-api/internal/config"
	"stockcast-go-api/internal/models"
	"stockcast-go-api/pkg/alphavantage"
	"stockcast-go-api/pkg/yahoo"
)

// QuoteProvider is one upstream source of ticker metadata
type QuoteProvider interface {
	Name() string
	Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error)
}

// MarketDataService looks up ticker metadata with cache and provider fallback
type MarketDataService struct {
	cache       *CacheService
	providers   []QuoteProvider
	workerLimit int
}

func NewMarketDataService(cfg *config.Config, cache *CacheService) *MarketDataService {
	providers := []QuoteProvider{
		yahoo.NewClient(yahoo.WithTimeout(cfg.MarketDataTimeout)),
		yahoo.NewEquityClient(),
	}
	if cfg.AlphaVantageKey != "" {
		providers = append(providers, alphavantage.NewClient(cfg.AlphaVantageKey))
	}
	return NewMarketDataServiceWithProviders(cache, cfg.MaxConcurrentFetches, providers...)
}

// NewMarketDataServiceWithProviders uses providers in priority order
func NewMarketDataServiceWithProviders(cache *CacheService, workerLimit int, providers ...QuoteProvider) *MarketDataService {
	if workerLimit < 1 {
		workerLimit = 1
	}
	return &MarketDataService{
		cache:       cache,
		providers:   providers,
		workerLimit: workerLimit,
	}
}

// Lookup returns metadata for symbol
func (s *MarketDataService) Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	return s.fetchSingle(ctx, symbol)
}

// FetchBatch fetches metadata for several tickers with bounded concurrency.
// It fails only when every ticker failed.
func (s *MarketDataService) FetchBatch(ctx context.Context, tickers []string) (map[string]*models.StockMetadata, error) {
	results := make(map[string]*models.StockMetadata, len(tickers))
	var mu sync.Mutex
	var errs []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerLimit)

	for _, ticker := range tickers {
		symbol := ticker
		g.Go(func() error {
			data, err := s.fetchSingle(gctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to fetch %s: %w", symbol, err))
				return nil
			}
			results[symbol] = data
			return nil
		})
	}
	g.Wait()

	if len(errs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all fetches failed: %w", errs[0])
	}
	for _, err := range errs {
		log.Printf("[market] %v", err)
	}

	return results, nil
}

// fetchSingle asks every provider at once and keeps the answer of the
// highest priority provider that succeeded
func (s *MarketDataService) fetchSingle(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	if cached, found := s.cache.GetStockMetadata(ctx, symbol); found {
		return cached, nil
	}
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("no market data providers configured")
	}

	type result struct {
		data *models.StockMetadata
		err  error
	}

	// losing providers are cancelled on return
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chans := make([]chan result, len(s.providers))
	for i, provider := range s.providers {
		chans[i] = make(chan result, 1)
		go func(p QuoteProvider, ch chan<- result) {
			defer func() {
				if r := recover(); r != nil {
					ch <- result{nil, fmt.Errorf("%s lookup panicked: %v", p.Name(), r)}
				}
			}()
			data, err := p.Lookup(ctx, symbol)
			if err == nil && data == nil {
				err = fmt.Errorf("%s returned no data", p.Name())
			}
			ch <- result{data, err}
		}(provider, chans[i])
	}

	var firstErr error
	for i, ch := range chans {
		select {
		case res := <-ch:
			if res.err == nil {
				s.cache.SetStockMetadata(ctx, symbol, res.data)
				return res.data, nil
			}
			log.Printf("[market] %s lookup for %s failed: %v", s.providers[i].Name(), symbol, res.err)
			if firstErr == nil {
				firstErr = res.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all sources failed for %s: %w", symbol, firstErr)
}
