package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"stockcast-go-api/internal/models"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithBaseURL returns a copy of the client pointed at another endpoint
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.baseURL = baseURL
	return &cp
}

type GlobalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type OverviewResponse struct {
	Symbol               string `json:"Symbol"`
	Sector               string `json:"Sector"`
	PERatio              string `json:"PERatio"`
	MarketCapitalization string `json:"MarketCapitalization"`
	DividendYield        string `json:"DividendYield"`
	Note                 string `json:"Note"`
	Information          string `json:"Information"`
}

func (c *Client) Name() string {
	return "alphavantage"
}

// Lookup combines the company overview with the latest global quote
func (c *Client) Lookup(ctx context.Context, symbol string) (*models.StockMetadata, error) {
	var overview OverviewResponse
	if err := c.query(ctx, "OVERVIEW", symbol, &overview); err != nil {
		return nil, err
	}
	if msg := firstNonEmpty(overview.Note, overview.Information); msg != "" {
		return nil, fmt.Errorf("alpha vantage: %s", msg)
	}
	if overview.Symbol == "" {
		return nil, fmt.Errorf("no overview returned for symbol %s", symbol)
	}

	var quote GlobalQuoteResponse
	if err := c.query(ctx, "GLOBAL_QUOTE", symbol, &quote); err != nil {
		return nil, err
	}
	if msg := firstNonEmpty(quote.Note, quote.Information); msg != "" {
		return nil, fmt.Errorf("alpha vantage: %s", msg)
	}
	if quote.GlobalQuote.Symbol == "" {
		return nil, fmt.Errorf("no data returned for symbol %s", symbol)
	}

	meta := &models.StockMetadata{
		Symbol:        symbol,
		TrailingPE:    parseNumber(overview.PERatio),
		DividendYield: parseNumber(overview.DividendYield),
		CurrentPrice:  parseNumber(quote.GlobalQuote.Price),
		PreviousClose: parseNumber(quote.GlobalQuote.PreviousClose),
		Source:        c.Name(),
		LastUpdated:   time.Now(),
	}
	if overview.Sector != "" && overview.Sector != "None" {
		sector := overview.Sector
		meta.Sector = &sector
	}
	if d, err := decimal.NewFromString(overview.MarketCapitalization); err == nil {
		mc := d.IntPart()
		meta.MarketCap = &mc
	}
	return meta, nil
}

func (c *Client) query(ctx context.Context, function, symbol string, dst any) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "alpha vantage %s", function)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return errors.Wrapf(json.Unmarshal(body, dst), "alpha vantage %s", function)
}

// parseNumber reads Alpha Vantage's string numbers; "None", "-" and "" are unknown
func parseNumber(s string) *float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
