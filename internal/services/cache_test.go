package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcast-go-api/internal/models"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache[string, int](time.Hour)

	_, found := c.Get("a")
	assert.False(t, found)

	c.Set("a", 1)
	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, v)

	c.Clear()
	_, found = c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string, int](time.Millisecond)
	c.Set("a", 1)

	time.Sleep(5 * time.Millisecond)
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestCacheServiceReadsThroughRemote(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	writer := NewCacheServiceWithStore(time.Hour, store)
	writer.SetStockMetadata(ctx, "AAPL", &models.StockMetadata{Symbol: "AAPL", CurrentPrice: ptr(110.0)})
	writer.SetForecast(ctx, "key", models.ForecastResult(`{"predictions":[1,2]}`))

	// a second instance shares only the remote layer
	reader := NewCacheServiceWithStore(time.Hour, store)
	assert.Equal(t, "fake", reader.Backend())

	meta, found := reader.GetStockMetadata(ctx, "AAPL")
	require.True(t, found)
	assert.Equal(t, 110.0, *meta.CurrentPrice)

	result, found := reader.GetForecast(ctx, "key")
	require.True(t, found)
	assert.JSONEq(t, `{"predictions":[1,2]}`, string(result))
}

func TestCacheServiceRemoteErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.err = errUpstream

	svc := NewCacheServiceWithStore(time.Hour, store)
	svc.SetStockMetadata(ctx, "AAPL", &models.StockMetadata{Symbol: "AAPL"})

	// memory layer still answers
	_, found := svc.GetStockMetadata(ctx, "AAPL")
	assert.True(t, found)

	_, found = svc.GetForecast(ctx, "missing")
	assert.False(t, found)
	assert.ErrorIs(t, svc.Ping(ctx), errUpstream)
}

func TestCacheServiceRefresh(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewCacheServiceWithStore(time.Hour, store)

	svc.SetStockMetadata(ctx, "AAPL", &models.StockMetadata{Symbol: "AAPL"})
	svc.SetForecast(ctx, "key", json.RawMessage(`[1]`))
	require.Len(t, store.data, 2)

	require.NoError(t, svc.Refresh(ctx))

	_, found := svc.GetStockMetadata(ctx, "AAPL")
	assert.False(t, found)
	_, found = svc.GetForecast(ctx, "key")
	assert.False(t, found)
	assert.Empty(t, store.data)
}

func TestCacheServiceMemoryOnly(t *testing.T) {
	svc := NewCacheServiceWithStore(time.Hour, nil)

	assert.Equal(t, "memory", svc.Backend())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Refresh(context.Background()))
	assert.NoError(t, svc.Close())
}
