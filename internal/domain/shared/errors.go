package shared

import (
	"context"
	"errors"
	"fmt"
)

// Error codes shared by every bounded context of the core
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeStaleState          = "STALE_STATE"
	CodeAlreadyCompleted    = "ALREADY_COMPLETED"
	CodeAlreadyFinalized    = "ALREADY_FINALIZED"
	CodeTimeout             = "TIMEOUT"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code,
// so errors.Is(err, ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrStaleState          = NewDomainError(CodeStaleState, "Resource state changed since it was read")
	ErrAlreadyCompleted    = NewDomainError(CodeAlreadyCompleted, "Operation already completed")
	ErrAlreadyFinalized    = NewDomainError(CodeAlreadyFinalized, "Period already finalized")
	ErrTimeout             = NewDomainError(CodeTimeout, "Storage operation timed out")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Amount must be greater than zero")
)

// AsDomainError extracts a *DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCode reports whether err carries a DomainError with the given code
func IsCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}

// TranslateContextError converts deadline errors into TIMEOUT domain errors.
// Any other error is returned unchanged.
func TranslateContextError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewDomainErrorf(CodeTimeout, "storage call exceeded its deadline: %v", err)
	}
	return err
}
