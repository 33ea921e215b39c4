package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// statusCodes maps HTTP status codes to error codes. Statuses absent
// from the table classify as UNEXPECTED.
var statusCodes = map[int]ErrorCode{
	400: ErrCodeBadRequest,
	401: ErrCodeUnauthorized,
	402: ErrCodePaymentRequired,
	403: ErrCodeForbidden,
	404: ErrCodeNotFound,
	429: ErrCodeRateLimited,
	500: ErrCodeServerError,
	502: ErrCodeServerError,
	503: ErrCodeServerError,
	504: ErrCodeServerError,
}

// apiErrorBody is the structured error shape the service returns.
type apiErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Classify maps a non-2xx HTTP response to a structured Error. The
// message comes from the structured body when it parses, otherwise from
// the raw text, otherwise a generic "HTTP {status}" string. Classification
// is pure: the same status and body always yield the same result.
func Classify(status int, body []byte) *Error {
	code, ok := statusCodes[status]
	if !ok {
		code = ErrCodeUnexpected
	}

	raw := strings.TrimSpace(string(body))
	message := raw
	if raw != "" {
		var parsed apiErrorBody
		if err := json.Unmarshal(body, &parsed); err == nil {
			if parsed.Message != "" {
				message = parsed.Message
			} else if parsed.Error != "" {
				message = parsed.Error
			}
		}
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}

	return New(code, message,
		WithHTTPStatus(status),
		WithRawBody(raw),
	)
}
