// Package predictor talks to the Python service that trains and runs the
// LSTM/GRU price models.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"stockcast-go-api/internal/models"
)

// ErrNoResult is returned when the service answers without a result or a reason
var ErrNoResult = errors.New("forecasting service returned no result")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// predictResponse carries exactly one of Result or Error
type predictResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// Predict asks the service for a forecast. Any returned error is the reason
// the routine could not produce a result.
func (c *Client) Predict(ctx context.Context, req models.ForecastRequest) (models.ForecastResult, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode forecast request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build forecast request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "forecasting service unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read forecasting response")
	}

	var predResp predictResponse
	decodeErr := json.Unmarshal(body, &predResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && predResp.Error != "" {
			return nil, errors.New(predResp.Error)
		}
		return nil, fmt.Errorf("forecasting service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if decodeErr != nil {
		return nil, errors.Wrap(decodeErr, "failed to decode forecasting response")
	}

	if predResp.Error != "" {
		return nil, errors.New(predResp.Error)
	}
	if len(predResp.Result) == 0 || string(predResp.Result) == "null" {
		return nil, ErrNoResult
	}

	return models.ForecastResult(predResp.Result), nil
}

// Ping checks the service health endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "forecasting service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("forecasting service health returned %d", resp.StatusCode)
	}
	return nil
}
