package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcast-go-api/internal/models"
)

func newTestMarketData(providers ...QuoteProvider) *MarketDataService {
	return NewMarketDataServiceWithProviders(NewCacheServiceWithStore(time.Hour, nil), 2, providers...)
}

func TestLookupPrefersHigherPriorityProvider(t *testing.T) {
	slowPrimary := &fakeProvider{name: "primary", delay: 20 * time.Millisecond, data: &models.StockMetadata{Source: "primary"}}
	fastSecondary := &fakeProvider{name: "secondary", data: &models.StockMetadata{Source: "secondary"}}

	svc := newTestMarketData(slowPrimary, fastSecondary)

	meta, err := svc.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "primary", meta.Source)
	assert.Equal(t, "AAPL", meta.Symbol)
}

func TestLookupFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errUpstream}
	secondary := &fakeProvider{name: "secondary", data: &models.StockMetadata{Source: "secondary"}}

	svc := newTestMarketData(primary, secondary)

	meta, err := svc.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "secondary", meta.Source)
}

func TestLookupAllFail(t *testing.T) {
	svc := newTestMarketData(
		&fakeProvider{name: "primary", err: errUpstream},
		&fakeProvider{name: "secondary", err: errUpstream},
	)

	_, err := svc.Lookup(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUpstream)
	assert.Contains(t, err.Error(), "all sources failed for AAPL")
}

func TestLookupNoProviders(t *testing.T) {
	_, err := newTestMarketData().Lookup(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestLookupUsesCache(t *testing.T) {
	provider := &fakeProvider{name: "primary", data: &models.StockMetadata{Source: "primary"}}
	svc := newTestMarketData(provider)

	for i := 0; i < 3; i++ {
		_, err := svc.Lookup(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"AAPL"}, provider.calls())
}

func TestLookupContextCancelled(t *testing.T) {
	svc := newTestMarketData(&fakeProvider{name: "slow", delay: time.Second, data: &models.StockMetadata{}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.Lookup(ctx, "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type symbolFailProvider struct {
	fail string
}

func (p symbolFailProvider) Name() string { return "partial" }

func (p symbolFailProvider) Lookup(_ context.Context, symbol string) (*models.StockMetadata, error) {
	if symbol == p.fail {
		return nil, errUpstream
	}
	return &models.StockMetadata{Symbol: symbol, Source: "partial"}, nil
}

func TestFetchBatch(t *testing.T) {
	svc := newTestMarketData(symbolFailProvider{fail: "BAD"})

	results, err := svc.FetchBatch(context.Background(), []string{"AAPL", "MSFT", "BAD", "NVDA"})
	require.NoError(t, err)

	assert.Len(t, results, 3)
	assert.Contains(t, results, "MSFT")
	assert.NotContains(t, results, "BAD")
}

func TestFetchBatchAllFail(t *testing.T) {
	svc := newTestMarketData(&fakeProvider{name: "down", err: errUpstream})

	_, err := svc.FetchBatch(context.Background(), []string{"AAPL", "MSFT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all fetches failed")
}

func TestLookupRecoversProviderPanic(t *testing.T) {
	svc := newTestMarketData(
		&fakeProvider{name: "broken", panic: true},
		&fakeProvider{name: "backup", data: &models.StockMetadata{Source: "backup"}},
	)

	meta, err := svc.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "backup", meta.Source)
}
