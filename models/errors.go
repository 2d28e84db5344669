package models

import (
	"errors"
	"fmt"
)

// Error codes shared by services and controllers.
const (
	CodeDuplicateField = "DUPLICATE_FIELD"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeStorage        = "STORAGE_FAILURE"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewDuplicateError reports a uniqueness violation on field.
func NewDuplicateError(field string) *AppError {
	return &AppError{
		Code:    CodeDuplicateField,
		Message: fmt.Sprintf("%s already exists", field),
		Field:   field,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewStorageError(err error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: "storage failure",
		Err:     err,
	}
}

// ErrorCode returns the AppError code found in err's chain, or "" for foreign errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
