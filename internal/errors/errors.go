// Package errors provides custom error types for the Q-Semantic analysis client.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common cases
var (
	ErrNoAPIKey        = errors.New("no API key configured")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
)

// APIError represents a non-success HTTP response from the model endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError carrying the response body
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError wraps a transport failure
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s (%s): %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Err: err}
}

// NewNetworkErrorWithEndpoint creates a new NetworkError for a specific endpoint
func NewNetworkErrorWithEndpoint(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// BlockedError is returned when the model refuses the prompt
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "content blocked"
	}
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

// NewBlockedError creates a new BlockedError
func NewBlockedError(reason string) *BlockedError {
	return &BlockedError{Reason: reason}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// SchemaError is returned when a well-formed payload has the wrong shape
type SchemaError struct {
	Field    string
	Expected string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch: field %q must be %s", e.Field, e.Expected)
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(field, expected string) *SchemaError {
	return &SchemaError{Field: field, Expected: expected}
}

// Is allows comparison with sentinel errors
func (e *SchemaError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*SchemaError)
	return ok
}

// IsNetworkError reports whether err was caused by the transport
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsTimeoutError reports whether err is a timeout of any kind
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsBlockedError reports whether the prompt was refused
func IsBlockedError(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	return ""
}

// GetResponseBody returns the response body carried by err, or ""
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// Kind returns a short label for logging
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsTimeoutError(err):
		return "timeout"
	case IsNetworkError(err):
		return "network"
	case IsBlockedError(err):
		return "blocked"
	case GetHTTPStatus(err) > 0:
		return "http"
	case errors.Is(err, ErrInvalidResponse):
		return "parse"
	case errors.Is(err, ErrNoContent):
		return "empty"
	default:
		return "unknown"
	}
}
