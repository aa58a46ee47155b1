package infra

import (
	"fmt"
	"strings"
)

// UpstreamError reports a failed call to a third-party API with the
// provider's own message, rendered as "Transcription failed: ...".
type UpstreamError struct {
	Op      string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	op := e.Op
	if op != "" {
		op = strings.ToUpper(op[:1]) + op[1:]
	}
	return op + " failed: " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusError is a non-200 reply from a provider's HTTP API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return IsRetryableHTTPStatus(e.StatusCode)
}
