package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("repository: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("repository: %d: %s", e.StatusCode, e.Message)
}

// errorBody is the JSON error document the server writes.
type errorBody struct {
	Error string `json:"error"`
}

func newAPIError(status int, message string) *APIError {
	return &APIError{StatusCode: status, Message: message}
}

// IsNotFound reports whether err means the resource is missing or unreadable.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsInvalidResource reports whether err means a file was given where a
// directory was expected, or the reverse.
func IsInvalidResource(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
