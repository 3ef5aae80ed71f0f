package tedee

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the Tedee client.
var (
	// Authentication errors
	ErrUnauthorized  = errors.New("tedee: unauthorized (invalid credentials or expired token)")
	ErrNoCredentials = errors.New("tedee: username, password and client ID are required")

	// Resource errors
	ErrNotFound     = errors.New("tedee: resource not found")
	ErrLockNotFound = errors.New("tedee: no lock with that name")

	// Validation errors
	ErrInvalidDeviceID  = errors.New("tedee: device ID must be a positive integer")
	ErrEmptyOperationID = errors.New("tedee: operation ID cannot be empty")
)

// APIError represents an error response from the Tedee API.
// Messages carries the errorMessages field of the response envelope
// when the server provided one.
type APIError struct {
	StatusCode int
	Messages   []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("tedee: API error %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("tedee: API error %d", e.StatusCode)
}

// IsUnauthorized returns true if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

// IsNotFound returns true if the error indicates the resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsServerError returns true if the error is a 5xx response from the API.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode < 600
	}
	return false
}
