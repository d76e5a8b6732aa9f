package cablebill

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("cablebill: not found")
	ErrAlreadyExists = errors.New("cablebill: already exists")
	ErrInvalidInput  = errors.New("cablebill: invalid input")
	ErrUnauthorized  = errors.New("cablebill: unauthorized")

	// Area errors
	ErrAreaNotFound = errors.New("cablebill: area not found")
	ErrAreaNotEmpty = errors.New("cablebill: area has customers")

	// Customer errors
	ErrCustomerNotFound          = errors.New("cablebill: customer not found")
	ErrDuplicateConnectionNumber = errors.New("cablebill: duplicate connection number")

	// Payment errors
	ErrPaymentNotFound = errors.New("cablebill: payment not found")

	// User errors
	ErrUserNotFound   = errors.New("cablebill: user not found")
	ErrDuplicateUser  = errors.New("cablebill: username already taken")
	ErrBadCredentials = errors.New("cablebill: bad credentials")

	// Store errors
	ErrStoreNotReady     = errors.New("cablebill: store not ready")
	ErrStoreClosed       = errors.New("cablebill: store is closed")
	ErrWatchUnsupported  = errors.New("cablebill: store does not support change feeds")
	ErrTransactionFailed = errors.New("cablebill: transaction failed")
	ErrMigrationFailed   = errors.New("cablebill: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("cablebill: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "cablebill: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cablebill: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAreaNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflict returns true if the error indicates a uniqueness or
// referential-integrity conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrDuplicateConnectionNumber) ||
		errors.Is(err, ErrDuplicateUser) ||
		errors.Is(err, ErrAreaNotEmpty)
}

// IsValidation returns true if the error is a validation failure.
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidInput) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
