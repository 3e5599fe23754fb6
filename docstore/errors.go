package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound indicates the document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrInvalidConfig indicates invalid store configuration
	ErrInvalidConfig = errors.New("invalid document store configuration")
	// ErrUnsupportedQuery indicates a query the backend cannot express
	ErrUnsupportedQuery = errors.New("unsupported query")
)

// StoreError wraps every failure of a document store operation. Recoverable
// is true when retrying later may succeed (network, availability) and false
// when the request itself is wrong (configuration, permissions, schema).
type StoreError struct {
	Op          string
	Recoverable bool
	Err         error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("document store %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *StoreError for op. An existing *StoreError is
// returned unchanged and a nil err stays nil.
func Wrap(op string, err error, recoverable bool) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Recoverable: recoverable, Err: err}
}

// IsRecoverable reports whether err is a recoverable store failure.
// Context cancellation and deadline errors count as recoverable.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Recoverable
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
