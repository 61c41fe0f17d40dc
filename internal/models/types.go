package models

import (
	"encoding/json"
	"time"
)

// Model architectures accepted by the forecasting routine
const (
	ModelLSTM = "LSTM"
	ModelGRU  = "GRU"
)

// ForecastOptions enumerates every optional request field with its default
type ForecastOptions struct {
	ModelType    string `json:"model_type" validate:"oneof=LSTM GRU"`
	LookBack     int    `json:"look_back" validate:"min=10,max=100"`
	Units        int    `json:"units" validate:"min=5,max=100"`
	Epochs       int    `json:"epochs" validate:"min=5,max=50"`
	BatchSize    int    `json:"batch_size" validate:"oneof=16 32 64"`
	ForecastDays int    `json:"forecast_days" validate:"min=1,max=30"`
}

// DefaultForecastOptions returns the values used when a request omits a field
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		ModelType:    ModelLSTM,
		LookBack:     100,
		Units:        100,
		Epochs:       20,
		BatchSize:    32,
		ForecastDays: 5,
	}
}

// ForecastRequest is a validated forecast request. Dates keep the
// YYYY-MM-DD form they arrived in.
type ForecastRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ForecastOptions
}

// ForecastResult is the payload produced by the forecasting routine. It is
// passed through without interpretation.
type ForecastResult = json.RawMessage

// StockMetadata is what a market data provider reports for a ticker.
// Nil fields were not reported by the provider.
type StockMetadata struct {
	Symbol        string    `json:"symbol"`
	Sector        *string   `json:"sector,omitempty"`
	TrailingPE    *float64  `json:"trailingPE,omitempty"`
	MarketCap     *int64    `json:"marketCap,omitempty"`
	DividendYield *float64  `json:"dividendYield,omitempty"` // fraction, 0.005 == 0.5%
	CurrentPrice  *float64  `json:"currentPrice,omitempty"`
	PreviousClose *float64  `json:"previousClose,omitempty"`
	Source        string    `json:"source"` // "yahoo", "finance-go" or "alphavantage"
	LastUpdated   time.Time `json:"lastUpdated"`
}

// PredictResponse is the success body of /predict
type PredictResponse struct {
	Result    ForecastResult `json:"result"`
	StockInfo StockInfo      `json:"stockInfo"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
