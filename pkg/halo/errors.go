package halo

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the remote API. Body carries an
// excerpt of the response payload for diagnostics.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: remote returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Retryable reports whether the failure is transient: rate limiting or a
// server-side error.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsNotFound reports whether err is a 404 from the remote API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
