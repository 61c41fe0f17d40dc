package yahoo

import (
	"context"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/pkg/errors"

	"stockcast-go-api/internal/models"
)

// EquityClient reads quotes through the finance-go library. The library does
// not expose the sector, so it is always left empty.
type EquityClient struct {
	get func(symbol string) (*finance.Equity, error)
}

func NewEquityClient() *EquityClient {
	return &EquityClient{get: equity.Get}
}

func (c *EquityClient) Name() string {
	return "finance-go"
}

// Lookup fetches the equity quote, giving up when ctx is done
func (c *EquityClient) Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	resultCh := make(chan *finance.Equity, 1)
	errCh := make(chan error, 1)

	go func() {
		q, err := c.get(symbol)
		if err != nil {
			errCh <- errors.Wrap(err, "failed to get equity quote")
			return
		}
		if q == nil {
			errCh <- errors.Errorf("no equity data returned for %s", symbol)
			return
		}
		resultCh <- q
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "equity quote timed out")
	case err := <-errCh:
		return nil, err
	case q := <-resultCh:
		return equityMetadata(symbol, q), nil
	}
}

func equityMetadata(symbol string, q *finance.Equity) *models.StockMetadata {
	meta := &models.StockMetadata{
		Symbol:      symbol,
		Source:      "finance-go",
		LastUpdated: time.Now(),
	}
	if q.TrailingPE != 0 {
		pe := q.TrailingPE
		meta.TrailingPE = &pe
	}
	if q.MarketCap != 0 {
		mc := q.MarketCap
		meta.MarketCap = &mc
	}
	if q.TrailingAnnualDividendYield != 0 {
		dy := q.TrailingAnnualDividendYield
		meta.DividendYield = &dy
	}
	if q.RegularMarketPrice != 0 {
		price := q.RegularMarketPrice
		meta.CurrentPrice = &price
	}
	if q.RegularMarketPreviousClose != 0 {
		prev := q.RegularMarketPreviousClose
		meta.PreviousClose = &prev
	}
	return meta
}
