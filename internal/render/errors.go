package render

import (
	"encoding/json"
	"errors"
	"strings"
)

// DefaultErrorMessage is surfaced when a failed response carries no message.
const DefaultErrorMessage = "export failed"

var (
	// ErrTransport wraps network failures and undecodable responses.
	ErrTransport = errors.New("render service unreachable")
	// ErrUnavailable is returned when no render service is configured.
	ErrUnavailable = errors.New("render service not configured")
)

// StatusError is a non-2xx reply from the render service. Error returns the
// server's message verbatim so it can be shown to the user as is.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func newStatusError(code int, body []byte) *StatusError {
	msg := DefaultErrorMessage
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && strings.TrimSpace(eb.Error) != "" {
		msg = eb.Error
	}
	return &StatusError{StatusCode: code, Message: msg}
}
