package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// APIError is the interface for all structured errors in meshkit.
// It extends the standard error interface with the context retry logic
// and callers need to decide how to react to a failure.
type APIError interface {
	error

	// Code returns the specific error code identifying the failure type.
	Code() ErrorCode

	// Category returns the error category for retry/handling decisions.
	Category() ErrorCategory

	// Retryable returns true if the operation may succeed on retry.
	Retryable() bool

	// HTTPStatus returns the originating HTTP status, or 0 for
	// transport-level and poller-level failures.
	HTTPStatus() int

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}

// Error is the concrete implementation of APIError.
type Error struct {
	code       ErrorCode
	category   ErrorCategory
	message    string
	cause      error
	retryable  *bool // nil means use default based on category
	httpStatus int
	rawBody    string
	taskID     string // related remote task, if applicable
	timestamp  time.Time
}

// Ensure Error implements APIError and json.Marshaler/Unmarshaler.
var (
	_ APIError         = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Category returns the error category.
func (e *Error) Category() ErrorCategory {
	return e.category
}

// Retryable returns whether this error is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// HTTPStatus returns the HTTP status that produced this error, or 0
// when no response was received.
func (e *Error) HTTPStatus() int {
	return e.httpStatus
}

// RawBody returns the unparsed response body, if one was captured.
func (e *Error) RawBody() string {
	return e.rawBody
}

// TaskID returns the related task ID, if set.
func (e *Error) TaskID() string {
	return e.taskID
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Cause      string        `json:"cause,omitempty"`
	Retryable  bool          `json:"retryable"`
	HTTPStatus int           `json:"http_status,omitempty"`
	RawBody    string        `json:"raw_body,omitempty"`
	TaskID     string        `json:"task_id,omitempty"`
	Timestamp  string        `json:"timestamp,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Code:       e.code,
		Category:   e.category,
		Message:    e.message,
		Retryable:  e.Retryable(),
		HTTPStatus: e.httpStatus,
		RawBody:    e.rawBody,
		TaskID:     e.taskID,
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.code = j.Code
	e.category = j.Category
	e.message = j.Message
	e.httpStatus = j.HTTPStatus
	e.rawBody = j.RawBody
	e.taskID = j.TaskID
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the default category.
func WithCategory(cat ErrorCategory) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithHTTPStatus sets the originating HTTP status code.
func WithHTTPStatus(status int) Option {
	return func(e *Error) {
		e.httpStatus = status
	}
}

// WithRawBody attaches the unparsed response body.
func WithRawBody(body string) Option {
	return func(e *Error) {
		e.rawBody = body
	}
}

// WithTaskID sets the related task ID.
func WithTaskID(id string) Option {
	return func(e *Error) {
		e.taskID = id
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{
		code:      code,
		category:  code.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// FromCode creates an error with the default description for the code.
func FromCode(code ErrorCode, opts ...Option) *Error {
	return New(code, code.Description(), opts...)
}

// Transport creates a transport failure error wrapping the network cause.
func Transport(cause error, opts ...Option) *Error {
	opts = append([]Option{WithCause(cause)}, opts...)
	return New(ErrCodeTransport, "request transport failed", opts...)
}

// Timeout creates a timeout error.
func Timeout(message string, opts ...Option) *Error {
	return New(ErrCodeTimeout, message, opts...)
}

// NotFound creates a not found error.
func NotFound(message string, opts ...Option) *Error {
	return New(ErrCodeNotFound, message, opts...)
}

// RateLimited creates a rate limit error.
func RateLimited(message string, opts ...Option) *Error {
	return New(ErrCodeRateLimited, message, opts...)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string, opts ...Option) *Error {
	return New(ErrCodeUnauthorized, message, opts...)
}

// TaskFailed creates an error for a task observed in a terminal failure
// state. The status records which terminal state was observed.
func TaskFailed(taskID, status string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeTaskFailed, fmt.Sprintf("task %s reached status %s", taskID, status), opts...)
}

// PollTimeout creates an error for a poll that exhausted its attempt
// budget. The status records the last non-terminal status observed.
func PollTimeout(taskID, status string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodePollTimeout, fmt.Sprintf("task %s still %s after polling budget exhausted", taskID, status), opts...)
}
