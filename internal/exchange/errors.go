package exchange

import (
	"errors"
	"fmt"
)

// APIError is returned when the exchange answers with a non-200 status.
// The body carries the exchange's own error payload and is preserved
// verbatim so callers can relay it upstream.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// AsAPIError unwraps an *APIError from err if present.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
