package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: dropped connections, gateway timeouts, 5xx responses.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: malformed request, invalid credential, missing resource.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates quota or throughput exhaustion.
	// Examples: 429 responses, exhausted generation credits.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates failures the client cannot classify.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for the failure modes the client distinguishes.
const (
	// HTTP response classification
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"      // 400: malformed or invalid request
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"     // 401: credential rejected
	ErrCodePaymentRequired ErrorCode = "PAYMENT_REQUIRED" // 402: out of credits
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"        // 403: access denied
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"        // 404: resource does not exist
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"     // 429: request rate exceeded
	ErrCodeServerError     ErrorCode = "SERVER_ERROR"     // 500/502/503/504: service-side failure
	ErrCodeUnexpected      ErrorCode = "UNEXPECTED"       // any other non-2xx status

	// Transport-level failures (no response received)
	ErrCodeTransport ErrorCode = "TRANSPORT" // connection failed mid-request
	ErrCodeTimeout   ErrorCode = "TIMEOUT"   // request deadline exceeded

	// Task lifecycle failures observed by the poller
	ErrCodeTaskFailed  ErrorCode = "TASK_FAILED"  // task reached failed/canceled/expired
	ErrCodePollTimeout ErrorCode = "POLL_TIMEOUT" // poll budget exhausted before a terminal status
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTransport, ErrCodeTimeout, ErrCodeServerError:
		return CategoryTransient

	case ErrCodeBadRequest, ErrCodeUnauthorized, ErrCodePaymentRequired,
		ErrCodeForbidden, ErrCodeNotFound, ErrCodeTaskFailed, ErrCodePollTimeout:
		return CategoryPermanent

	case ErrCodeRateLimited:
		return CategoryResource

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeBadRequest:      "invalid request",
	ErrCodeUnauthorized:    "authentication required",
	ErrCodePaymentRequired: "payment required",
	ErrCodeForbidden:       "access denied",
	ErrCodeNotFound:        "resource not found",
	ErrCodeRateLimited:     "rate limit exceeded",
	ErrCodeServerError:     "server error",
	ErrCodeUnexpected:      "unexpected response",
	ErrCodeTransport:       "transport failure",
	ErrCodeTimeout:         "request timed out",
	ErrCodeTaskFailed:      "task failed",
	ErrCodePollTimeout:     "polling timed out",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
