package pinboard

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport marks failures that happened before a response status was
	// available: dial errors, cancelled contexts, truncated bodies.
	ErrTransport = errors.New("pinboard: transport failure")

	// ErrDecode marks a successful response whose body is not the expected JSON.
	ErrDecode = errors.New("pinboard: malformed response")

	// ErrInvalidRequest marks a request rejected locally, before any network I/O.
	ErrInvalidRequest = errors.New("pinboard: invalid request")
)

// APIError represents a non-2xx response from the Pinboard API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// ResultError is returned when the API answers 2xx but reports a failure in
// the body, e.g. {"result_code": "item not found"}.
type ResultError struct {
	Op   Operation
	Code string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Code)
}

// IsRateLimited reports whether err is a 429 Too Many Requests response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
