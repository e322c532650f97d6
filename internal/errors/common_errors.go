package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConnectivity  ErrorType = "CONNECTIVITY"
	ErrTypeShapeMismatch ErrorType = "SHAPE_MISMATCH"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypePublication   ErrorType = "PUBLICATION"
)

// Sentinels for errors.Is checks; any AppError of the same type matches
var (
	ErrConnectivity  = &AppError{Type: ErrTypeConnectivity, Message: "store unreachable"}
	ErrShapeMismatch = &AppError{Type: ErrTypeShapeMismatch, Message: "column count does not match the contract"}
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

// Is matches another AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
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

// TypeOf returns the type of the first AppError in the chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsConnectivity reports whether err is a connectivity failure
func IsConnectivity(err error) bool {
	return stderrors.Is(err, ErrConnectivity)
}

// Helper functions for common error types

// NewConnectivityError creates an error for an unreachable or failing store connection
func NewConnectivityError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConnectivity, message, cause)
}

// NewShapeMismatchError creates an error for a dataset that does not fit the column contract
func NewShapeMismatchError(got, want int) *AppError {
	return NewAppError(ErrTypeShapeMismatch, fmt.Sprintf("dataset has %d contract columns, want %d", got, want), nil).
		WithContext("got", got).
		WithContext("want", want)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewPublicationError creates an error for a failed object storage upload
func NewPublicationError(message string, cause error) *AppError {
	return NewAppError(ErrTypePublication, message, cause)
}
