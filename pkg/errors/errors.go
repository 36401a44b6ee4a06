package errors

import (
	"errors"
	"fmt"
)

// Orchestration error taxonomy. These sentinels are the stable error kinds
// surfaced at the API boundary; everything else wraps one of them.

var (
	// ErrConfiguration indicates an unresolvable provider/model/role binding.
	// Fatal at setup, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrRateLimited indicates a provider request window is exhausted
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTransient indicates a provider-side transient network failure
	ErrTransient = errors.New("transient network error")

	// ErrModelUnavailable indicates the backend model is temporarily unavailable
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrAuth indicates an invalid or rejected provider credential
	ErrAuth = errors.New("authentication failed")

	// ErrDependencyFailed indicates an upstream task in the same job failed,
	// so this task was never attempted
	ErrDependencyFailed = errors.New("task dependency failed")

	// ErrTimeout indicates the job's wall-clock budget was exceeded
	ErrTimeout = errors.New("timeout exceeded")
)

// General-purpose errors

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a required collaborator is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Retryable reports whether an error is worth retrying. Only provider-side
// transient conditions qualify; configuration and auth failures never do.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrModelUnavailable)
}

// Kind returns the stable machine-readable kind for an error, suitable for
// the API boundary. Unrecognized errors map to "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrTransient):
		return "transient_network_error"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrDependencyFailed):
		return "task_dependency_failure"
	case errors.Is(err, ErrTimeout):
		return "timeout_exceeded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
