package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"stockcast-go-api/internal/models"
)

const dateLayout = "2006-01-02"

var requiredFields = []string{"ticker", "start_date", "end_date"}

// constraintMessages is ordered: when several options are out of range the
// first entry wins.
var constraintMessages = []struct {
	field   string
	message string
}{
	{"ModelType", "The model should either be LSTM or GRU"},
	{"LookBack", "Look back should be between 10 and 100 days"},
	{"Units", "Units should be between 5 and 100"},
	{"Epochs", "Epochs should be between 5 and 50"},
	{"BatchSize", "Batch size should be 16, 32 or 64"},
	{"ForecastDays", "Forecast days should be between 1 and 30"},
}

// RequestValidator turns raw /predict payloads into forecast requests
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// Parse checks the content type and decodes body before validating it
func (v *RequestValidator) Parse(contentType string, body []byte) (*models.ForecastRequest, error) {
	if !isJSON(contentType) {
		return nil, ErrNotJSON
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	return v.Validate(payload)
}

// Validate applies presence, format and range checks to a decoded payload.
// Numbers are expected as json.Number or float64.
func (v *RequestValidator) Validate(payload map[string]any) (*models.ForecastRequest, error) {
	if len(payload) == 0 {
		return nil, ErrNoPayload
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, badRequest("missing required fields: " + strings.Join(missing, ", "))
	}

	ticker, ok := payload["ticker"].(string)
	if !ok {
		return nil, ErrTickerType
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrTickerEmpty
	}

	startDate, ok := payload["start_date"].(string)
	if !ok || v.validate.Var(startDate, "datetime="+dateLayout) != nil {
		return nil, ErrDateFormat
	}
	endDate, ok := payload["end_date"].(string)
	if !ok || v.validate.Var(endDate, "datetime="+dateLayout) != nil {
		return nil, ErrDateFormat
	}

	opts, err := readOptions(payload)
	if err != nil {
		return nil, err
	}

	if err := v.checkConstraints(opts); err != nil {
		return nil, err
	}

	return &models.ForecastRequest{
		Ticker:          ticker,
		StartDate:       startDate,
		EndDate:         endDate,
		ForecastOptions: opts,
	}, nil
}

func (v *RequestValidator) checkConstraints(opts models.ForecastOptions) error {
	err := v.validate.Struct(opts)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return badRequest(err.Error())
	}

	failed := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}
	for _, c := range constraintMessages {
		if failed[c.field] {
			return badRequest(c.message)
		}
	}
	return badRequest(fieldErrs.Error())
}

func readOptions(payload map[string]any) (models.ForecastOptions, error) {
	opts := models.DefaultForecastOptions()

	if raw, ok := payload["model_type"]; ok {
		// non-strings fall through to the enum check
		s, _ := raw.(string)
		opts.ModelType = s
	}

	var err error
	if opts.LookBack, err = intField(payload, "look_back", opts.LookBack); err != nil {
		return opts, err
	}
	if opts.Units, err = intField(payload, "units", opts.Units); err != nil {
		return opts, err
	}
	if opts.Epochs, err = intField(payload, "epochs", opts.Epochs); err != nil {
		return opts, err
	}
	if opts.BatchSize, err = intField(payload, "batch_size", opts.BatchSize); err != nil {
		return opts, err
	}

	daysKey := "forecast_days"
	if _, ok := payload[daysKey]; !ok {
		if _, legacy := payload["forcast_days"]; legacy {
			daysKey = "forcast_days"
		}
	}
	if opts.ForecastDays, err = intField(payload, daysKey, opts.ForecastDays); err != nil {
		return opts, err
	}

	return opts, nil
}

// intField reads an optional integer. Fractions truncate toward zero and
// numeric strings are accepted.
func intField(payload map[string]any, key string, def int) (int, error) {
	raw, ok := payload[key]
	if !ok {
		return def, nil
	}

	switch val := raw.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return clampInt(float64(n)), nil
		}
		if f, err := val.Float64(); err == nil {
			return clampInt(f), nil
		}
	case float64:
		return clampInt(val), nil
	case int:
		return val, nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n, nil
		}
	}

	return 0, badRequest(fmt.Sprintf("invalid value for %s: %s", key, describe(raw)))
}

// clampInt keeps huge inputs out of range without overflowing
func clampInt(f float64) int {
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func decodePayload(body []byte) (map[string]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrNoPayload
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, badRequest("Invalid JSON payload: " + err.Error())
	}
	if dec.More() {
		return nil, badRequest("Invalid JSON payload: unexpected data after top-level value")
	}

	switch val := data.(type) {
	case nil:
		return nil, ErrNoPayload
	case map[string]any:
		if len(val) == 0 {
			return nil, ErrNoPayload
		}
		return val, nil
	case []any:
		if len(val) == 0 {
			return nil, ErrNoPayload
		}
	case bool:
		if !val {
			return nil, ErrNoPayload
		}
	case string:
		if val == "" {
			return nil, ErrNoPayload
		}
	}
	return nil, ErrNotObject
}

// isJSON accepts application/json and structured +json types
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
