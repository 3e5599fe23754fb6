package appwrite

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/s0up4200/reelscout/docstore"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid appwrite configuration")
	// ErrInvalidRequest indicates a request that could not be built
	ErrInvalidRequest = errors.New("invalid appwrite request")
	// ErrMalformedResponse indicates a response body that could not be decoded
	ErrMalformedResponse = errors.New("malformed appwrite response")
)

// APIError represents an error response from the Appwrite API
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("appwrite API error: status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("appwrite API error: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match a 404 against docstore.ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == docstore.ErrNotFound && e.IsNotFound()
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRecoverable reports whether retrying later may succeed
func (e *APIError) IsRecoverable() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// errorResponse is the error body Appwrite returns
type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}
