package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrTimeout is returned when a request exceeds its time bound.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled is returned when the caller cancelled the request.
	// The cancellation cause is wrapped alongside it.
	ErrCancelled = errors.New("request cancelled")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (no HTTP status).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout and ErrorClassCancelled are only used as metric labels;
	// those failures are reported as ErrTimeout and ErrCancelled.
	ErrorClassTimeout   ErrorClass = "timeout"
	ErrorClassCancelled ErrorClass = "cancelled"
)

// HTTPError is a non-2xx response or a transport failure.
type HTTPError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	// Body is the parsed JSON error body, nil when absent or not JSON.
	Body json.RawMessage
	Err  error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("HTTP %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a caller-initiated cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// StatusCode extracts the HTTP status from err, 0 if there is none.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(err error) bool {
	if IsCancelled(err) || IsTimeout(err) {
		return false
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.ErrorClass {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		// 4xx means the request itself is wrong
		return false
	}
}
