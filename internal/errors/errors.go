package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an error for logging and exit handling.
type ErrorType string

const (
	ErrTypeSource     ErrorType = "SOURCE"
	ErrTypeReference  ErrorType = "REFERENCE"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewSourceUnavailable reports that the input dataset cannot be opened.
// Fatal: the run aborts before any chunk is processed.
func NewSourceUnavailable(path string, cause error) *AppError {
	return NewAppError(ErrTypeSource, "source dataset unavailable", cause).
		WithContext("path", path)
}

// NewMalformedInput reports a chunk that cannot be parsed into the
// expected columnar shape. Fatal for the run: there is no per-chunk
// skip-and-continue policy.
func NewMalformedInput(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewReferenceLoadError reports that the zone lookup dataset cannot be
// loaded. Fatal: locations cannot be validated without it.
func NewReferenceLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeReference, message, cause)
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
