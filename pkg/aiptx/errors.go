package aiptx

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTarget  = errors.New("scan target must not be empty")
	ErrSessionStarted = errors.New("scan session already started")
)

// ApiError is a non-2xx response from the server. 4xx means the request was
// at fault and is not worth retrying unchanged; 5xx may be transient.
type ApiError struct {
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("aiptx api error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the caller may reasonably retry with backoff.
func (e *ApiError) Retryable() bool {
	return e.StatusCode >= 500
}

func NewApiError(statusCode int, body string) *ApiError {
	return &ApiError{StatusCode: statusCode, Body: body}
}

// NetworkError wraps a connection, DNS, or timeout failure. These are
// transient: the caller may retry the whole operation.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("aiptx network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func NewNetworkError(err error) *NetworkError {
	return &NetworkError{Err: err}
}

// DecodeError is a malformed response body from a one-shot call.
// Not retryable; the server sent something the client cannot interpret.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("aiptx decode error for %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func NewDecodeError(path string, err error) *DecodeError {
	return &DecodeError{Path: path, Err: err}
}

// StreamDecodeError is one malformed event on an otherwise healthy push
// stream. The event is dropped and the stream continues.
type StreamDecodeError struct {
	EventName string
	Err       error
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("aiptx stream decode error for event %q: %v", e.EventName, e.Err)
}

func (e *StreamDecodeError) Unwrap() error {
	return e.Err
}

func NewStreamDecodeError(eventName string, err error) *StreamDecodeError {
	return &StreamDecodeError{EventName: eventName, Err: err}
}

// StreamLostError means the push channel broke before a terminal event and
// reconnection attempts were exhausted. It lets callers tell "the client
// lost contact with the scan" apart from "the scan failed".
type StreamLostError struct {
	Attempts int
	Err      error
}

func (e *StreamLostError) Error() string {
	return fmt.Sprintf("aiptx stream lost after %d reconnect attempts: %v", e.Attempts, e.Err)
}

func (e *StreamLostError) Unwrap() error {
	return e.Err
}

func NewStreamLostError(attempts int, err error) *StreamLostError {
	return &StreamLostError{Attempts: attempts, Err: err}
}
