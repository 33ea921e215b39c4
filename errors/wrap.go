package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already an APIError, it wraps it with the new message while
// keeping its code, category, and HTTP context.
// Otherwise, it creates a new Transport error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	// If it's already one of ours, preserve its properties
	var apiErr *Error
	if errors.As(err, &apiErr) {
		wrapped := &Error{
			code:       apiErr.code,
			category:   apiErr.category,
			message:    message,
			cause:      err,
			retryable:  apiErr.retryable,
			httpStatus: apiErr.httpStatus,
			rawBody:    apiErr.rawBody,
			taskID:     apiErr.taskID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Context errors carry their own meaning
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err), WithRetryable(false))...)
	}

	// A bare error at this layer means the request never produced a response
	return New(ErrCodeTransport, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsAPIError attempts to extract an APIError from an error chain.
// Returns nil if no APIError is found.
func AsAPIError(err error) APIError {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Default to not retryable for foreign errors
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not an APIError.
func Code(err error) ErrorCode {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not an APIError.
func Category(err error) ErrorCategory {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.category
	}
	return ""
}

// HTTPStatus extracts the HTTP status from an error, if available.
// Returns 0 if err is not an APIError or carries no status.
func HTTPStatus(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.httpStatus
	}
	return 0
}

// TaskID extracts the related task ID from an error, if available.
func TaskID(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.taskID
	}
	return ""
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Join combines multiple errors into a single error.
// If all errors are nil, returns nil.
// Uses errors.Join from the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
