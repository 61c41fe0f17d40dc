package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"stockcast-go-api/internal/models"
)

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	summaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	userAgent  = "Mozilla/5.0 (compatible; stockcast/1.0)"
)

type Client struct {
	httpClient *http.Client
	chartURL   string
	summaryURL string
}

// Option configures a Client
type Option func(*Client)

// WithBaseURLs points the client at different chart and quoteSummary endpoints
func WithBaseURLs(chart, summary string) Option {
	return func(c *Client) {
		c.chartURL = chart
		c.summaryURL = summary
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		chartURL:   chartURL,
		summaryURL: summaryURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper; empty when unknown
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				MarketCap     rawValue `json:"marketCap"`
				DividendYield rawValue `json:"dividendYield"`
				PreviousClose rawValue `json:"previousClose"`
			} `json:"summaryDetail"`
			Price struct {
				RegularMarketPrice         rawValue `json:"regularMarketPrice"`
				RegularMarketPreviousClose rawValue `json:"regularMarketPreviousClose"`
			} `json:"price"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Name identifies the provider in metadata and logs
func (c *Client) Name() string {
	return "yahoo"
}

// Lookup returns profile, valuation and price data for symbol. Prices come
// from quoteSummary and fall back to the chart endpoint when missing.
func (c *Client) Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	var summary summaryResponse
	url := fmt.Sprintf("%s/%s?modules=assetProfile,summaryDetail,price", c.summaryURL, symbol)
	status, err := c.getJSON(ctx, url, &summary)
	if err != nil {
		return nil, errors.Wrapf(err, "quote summary for %s", symbol)
	}

	qs := summary.QuoteSummary
	if qs.Error != nil && qs.Error.Description != "" {
		return nil, fmt.Errorf("yahoo finance: %s", qs.Error.Description)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo finance returned status %d", status)
	}
	if len(qs.Result) == 0 {
		return nil, fmt.Errorf("no data returned for symbol %s", symbol)
	}

	result := qs.Result[0]
	meta := &models.StockMetadata{
		Symbol:        symbol,
		TrailingPE:    result.SummaryDetail.TrailingPE.Raw,
		DividendYield: result.SummaryDetail.DividendYield.Raw,
		CurrentPrice:  result.Price.RegularMarketPrice.Raw,
		PreviousClose: result.Price.RegularMarketPreviousClose.Raw,
		Source:        c.Name(),
		LastUpdated:   time.Now(),
	}
	if result.AssetProfile.Sector != "" {
		sector := result.AssetProfile.Sector
		meta.Sector = &sector
	}
	if mc := result.SummaryDetail.MarketCap.Raw; mc != nil {
		capValue := int64(*mc)
		meta.MarketCap = &capValue
	}
	if meta.PreviousClose == nil {
		meta.PreviousClose = result.SummaryDetail.PreviousClose.Raw
	}

	if meta.CurrentPrice == nil || meta.PreviousClose == nil {
		price, previousClose, err := c.GetQuote(ctx, symbol)
		if err == nil {
			if meta.CurrentPrice == nil && price > 0 {
				meta.CurrentPrice = &price
			}
			if meta.PreviousClose == nil && previousClose > 0 {
				meta.PreviousClose = &previousClose
			}
		}
	}

	return meta, nil
}

// GetQuote returns the latest price and previous close from the chart endpoint
func (c *Client) GetQuote(ctx context.Context, symbol string) (float64, float64, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.chartURL, symbol)

	var chart chartResponse
	status, err := c.getJSON(ctx, url, &chart)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "chart for %s", symbol)
	}
	if status != http.StatusOK {
		return 0, 0, fmt.Errorf("yahoo finance returned status %d", status)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, 0, fmt.Errorf("no data returned for symbol %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	previousClose := meta.PreviousClose
	if previousClose == 0 {
		previousClose = meta.ChartPreviousClose
	}
	return meta.RegularMarketPrice, previousClose, nil
}

// getJSON decodes the body whatever the status so error payloads can be read
func (c *Client) getJSON(ctx context.Context, url string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, errors.Wrap(err, "malformed response")
	}
	return resp.StatusCode, nil
}
