package models

import "encoding/json"

// StockInfo is the market metadata attached to a forecast. When the lookup
// failed only Warning is set and the record serializes as {"warning": ...}.
type StockInfo struct {
	Sector        *string
	PERatio       *float64
	MarketCap     *int64
	DividendYield float64 // percent
	CurrentPrice  *float64
	ChangePercent *float64

	Warning string
}

// NewStockInfo derives the response record from provider metadata
func NewStockInfo(meta *StockMetadata) StockInfo {
	info := StockInfo{
		Sector:       meta.Sector,
		PERatio:      meta.TrailingPE,
		MarketCap:    meta.MarketCap,
		CurrentPrice: meta.CurrentPrice,
	}
	if meta.DividendYield != nil {
		info.DividendYield = *meta.DividendYield * 100
	}
	info.ChangePercent = ChangePercent(meta.CurrentPrice, meta.PreviousClose)
	return info
}

// DegradedStockInfo returns the record used when enrichment failed
func DegradedStockInfo(warning string) StockInfo {
	return StockInfo{Warning: warning}
}

// Degraded reports whether the record only carries a warning
func (s StockInfo) Degraded() bool {
	return s.Warning != ""
}

// ChangePercent returns the move from previous close in percent, or nil
// when either price is unknown or zero.
func ChangePercent(current, previousClose *float64) *float64 {
	if current == nil || previousClose == nil || *current == 0 || *previousClose == 0 {
		return nil
	}
	change := (*current - *previousClose) / *previousClose * 100
	return &change
}

type stockInfoJSON struct {
	Sector        *string  `json:"sector"`
	PERatio       *float64 `json:"peRatio"`
	MarketCap     *int64   `json:"marketCap"`
	DividendYield float64  `json:"dividendYield"`
	CurrentPrice  *float64 `json:"currentPrice"`
	ChangePercent *float64 `json:"changePercent"`
}

type stockWarningJSON struct {
	Warning string `json:"warning"`
}

func (s StockInfo) MarshalJSON() ([]byte, error) {
	if s.Degraded() {
		return json.Marshal(stockWarningJSON{Warning: s.Warning})
	}
	return json.Marshal(stockInfoJSON{
		Sector:        s.Sector,
		PERatio:       s.PERatio,
		MarketCap:     s.MarketCap,
		DividendYield: s.DividendYield,
		CurrentPrice:  s.CurrentPrice,
		ChangePercent: s.ChangePercent,
	})
}

func (s *StockInfo) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw["warning"]; ok {
		var w stockWarningJSON
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		*s = StockInfo{Warning: w.Warning}
		return nil
	}

	var v stockInfoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = StockInfo{
		Sector:        v.Sector,
		PERatio:       v.PERatio,
		MarketCap:     v.MarketCap,
		DividendYield: v.DividendYield,
		CurrentPrice:  v.CurrentPrice,
		ChangePercent: v.ChangePercent,
	}
	return nil
}
