package ticketline

import (
	"errors"
	"fmt"
)

// Error types for specific failure scenarios
var (
	// ErrInvalidConfig indicates invalid configuration options
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAlreadyStarted indicates Start was called on a running service
	ErrAlreadyStarted = errors.New("service already started")

	// ErrClosed indicates the service has been closed
	ErrClosed = errors.New("service is closed")
)

// ConfigError reports an invalid configuration option
type ConfigError struct {
	Option string
	Err    error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in option %s: %v", e.Option, e.Err)
}

// Unwrap returns the wrapped error
func (e *ConfigError) Unwrap() error {
	return e.Err
}
