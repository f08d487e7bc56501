package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates a request the caller can correct.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a unique constraint or state conflict.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodePersistence indicates the document store could not be read or written.
	ErrCodePersistence ErrorCode = "persistence"
	// ErrCodeQueueUnavailable indicates an entry could not be enqueued.
	ErrCodeQueueUnavailable ErrorCode = "queue_unavailable"
	// ErrCodeProcessor indicates an external provider call failed.
	ErrCodeProcessor ErrorCode = "processor"
	// ErrCodeNotification indicates email delivery failed. Never surfaced to callers.
	ErrCodeNotification ErrorCode = "notification"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError is a structured application error with a code, message and optional cause.
// It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input for validation errors.
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// NotFound creates a not-found error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a not-found error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Internal creates an internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Persistence wraps a store failure.
func Persistence(err error, message string) *AppError {
	return Wrap(err, ErrCodePersistence, message)
}

// QueueUnavailable wraps an enqueue failure.
func QueueUnavailable(err error, message string) *AppError {
	return Wrap(err, ErrCodeQueueUnavailable, message)
}

// Processor wraps a failed provider call.
func Processor(err error, message string) *AppError {
	return Wrap(err, ErrCodeProcessor, message)
}

// Notification wraps an email delivery failure.
func Notification(err error, message string) *AppError {
	return Wrap(err, ErrCodeNotification, message)
}

// Wrap wraps err with an AppError, preserving the cause. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with an AppError and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool { return isCode(err, ErrCodePersistence) }

// IsQueueUnavailable reports whether err is an enqueue failure.
func IsQueueUnavailable(err error) bool { return isCode(err, ErrCodeQueueUnavailable) }

// IsProcessor reports whether err is a provider failure.
func IsProcessor(err error) bool { return isCode(err, ErrCodeProcessor) }

// IsNotification reports whether err is an email delivery failure.
func IsNotification(err error) bool { return isCode(err, ErrCodeNotification) }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsPermanent reports whether err can never succeed on redelivery: bad input or a missing resource.
func IsPermanent(err error) bool {
	switch GetCode(err) {
	case ErrCodeValidation, ErrCodeNotFound:
		return true
	default:
		return false
	}
}

// GetCode returns the code of the outermost AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field of the outermost AppError in err's chain, or "".
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
