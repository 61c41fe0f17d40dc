package validation

import "net/http"

// Error is a rejected request. Message is returned to the caller verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Request errors with fixed wording
var (
	ErrNotJSON     = &Error{Status: http.StatusUnsupportedMediaType, Message: "Expected application/json"}
	ErrNoPayload   = badRequest("No payload provided.")
	ErrNotObject   = badRequest("Payload must be a JSON object")
	ErrDateFormat  = badRequest("Invalid date format. Use yyyy-mm-dd")
	ErrTickerType  = badRequest("ticker must be a string")
	ErrTickerEmpty = badRequest("ticker must not be empty")
)
