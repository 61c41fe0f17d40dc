package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockcast-go-api/internal/config"
	"stockcast-go-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func testConfig() *config.Config {
	return &config.Config{
		PythonServiceURL:     "http://forecaster.test",
		CacheTTL:             time.Hour,
		ForecastCacheEnabled: false,
		ForecastTimeout:      time.Second,
		MarketDataTimeout:    time.Second,
		MaxConcurrentFetches: 2,
	}
}

type fakeForecaster struct {
	mu     sync.Mutex
	calls  []models.ForecastRequest
	result models.ForecastResult
	err    error
}

func (f *fakeForecaster) Predict(_ context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.result, f.err
}

type fakeProvider struct {
	name  string
	delay time.Duration
	data  *models.StockMetadata
	err   error
	panic bool

	mu      sync.Mutex
	symbols []string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	p.mu.Lock()
	p.symbols = append(p.symbols, symbol)
	p.mu.Unlock()

	if p.panic {
		panic("malformed metadata")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	data := *p.data
	data.Symbol = symbol
	return &data, nil
}

func (p *fakeProvider) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.symbols...)
}

// memoryStore is a RemoteStore backed by a map
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Name() string { return "fake" }

func (m *memoryStore) Get(_ context.Context, collection, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[collection+"/"+key]
	return v, ok, nil
}

func (m *memoryStore) Set(_ context.Context, collection, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[collection+"/"+key] = value
	return nil
}

func (m *memoryStore) Clear(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if len(k) > len(collection) && k[:len(collection)+1] == collection+"/" {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return m.err }

func (m *memoryStore) Close() error { return nil }

var errUpstream = errors.New("upstream unavailable")
