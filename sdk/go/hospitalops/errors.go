// Package hospitalops provides a Go client for the hospital operations
// assistant API.
package hospitalops

import (
	"errors"
	"fmt"
)

// Error represents an error from the API with the HTTP status code
// and the server's error message.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("hospitalops: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	return hasStatus(err, 404)
}

// IsInvalidInput returns true if the error is a 400 or 413.
func IsInvalidInput(err error) bool {
	return hasStatus(err, 400) || hasStatus(err, 413)
}

// IsRateLimited returns true if the error is a 429 (Too Many Requests).
func IsRateLimited(err error) bool {
	return hasStatus(err, 429)
}

// IsUnavailable returns true if the error is a 503, e.g. an export with no
// durable mirror configured.
func IsUnavailable(err error) bool {
	return hasStatus(err, 503)
}

func hasStatus(err error, status int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == status
	}
	return false
}
