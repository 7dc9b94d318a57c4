package sales

import "errors"

var (
	// ErrNotFound covers unknown ids and tokens, and unverified listings on
	// public lookups.
	ErrNotFound = errors.New("listing not found")

	// ErrUnauthorized is returned by moderation operations called without a
	// live admin capability.
	ErrUnauthorized = errors.New("admin session required")
)

// ValidationError is bad user input. Its message is safe to show the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
