// Package errors provides the structured error taxonomy for meshkit.
// Every failure the client surfaces (HTTP responses, transport faults,
// task lifecycle failures) is represented as a single Error type
// discriminated by an ErrorCode, so callers switch on code rather than
// on concrete error types.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (5xx, transport faults)
//   - Permanent: Failures where retry will not help (4xx other than 429, task failures)
//   - Resource: Throughput or quota exhaustion (429)
//   - Internal: Responses the client cannot classify
//
// # Classification
//
// Non-2xx HTTP responses are mapped with Classify:
//
//	err := errors.Classify(resp.StatusCode, body)
//
// The mapping is fixed: 400 BAD_REQUEST, 401 UNAUTHORIZED, 402
// PAYMENT_REQUIRED, 403 FORBIDDEN, 404 NOT_FOUND, 429 RATE_LIMITED,
// 500/502/503/504 SERVER_ERROR, anything else UNEXPECTED.
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.ErrCodeTimeout, "request timed out")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "fetching task status")
//
// Check whether a retry could help:
//
//	if errors.IsRetryable(err) {
//	    // back off and try again
//	}
//
// # JSON Serialization
//
// Errors support JSON serialization for logging and diagnostics:
//
//	data, err := json.Marshal(apiErr)
package errors
