package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid tmdb configuration")
	// ErrUnauthorized indicates the bearer token was rejected
	ErrUnauthorized = errors.New("unauthorized: invalid TMDB token")
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidID indicates an empty or malformed movie id
	ErrInvalidID = errors.New("invalid movie id")
)

// HTTPError is returned when the catalog responds with a non-2xx status
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message != "" {
		return fmt.Sprintf("tmdb request failed: %s: %s", status, e.Message)
	}
	return fmt.Sprintf("tmdb request failed: %s", status)
}

// Is lets errors.Is match HTTPError against ErrNotFound and ErrUnauthorized
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.IsNotFound()
	case ErrUnauthorized:
		return e.IsUnauthorized()
	}
	return false
}

// IsNotFound checks if the error indicates a not found response
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsServerError checks if the catalog itself failed
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}
