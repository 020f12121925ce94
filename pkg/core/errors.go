// Package core provides shared utilities for the routemodel packages.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode defines standard error codes for routing operations
type ErrorCode string

// Standard error codes
const (
	// Input validation errors
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidLatitude  ErrorCode = "INVALID_LATITUDE"
	ErrInvalidLongitude ErrorCode = "INVALID_LONGITUDE"
	ErrTooManyPoints    ErrorCode = "TOO_MANY_POINTS"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrInvalidParameter ErrorCode = "INVALID_PARAMETER"

	// Service errors
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrRequestCancelled   ErrorCode = "REQUEST_CANCELLED"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"

	// Data errors
	ErrMissingField  ErrorCode = "MISSING_FIELD"
	ErrEmptyList     ErrorCode = "EMPTY_LIST"
	ErrMalformedJSON ErrorCode = "MALFORMED_JSON"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Kind groups error codes into the failure classes callers act on.
type Kind int

const (
	// KindInternal covers failures that are neither request nor parse errors.
	KindInternal Kind = iota
	// KindValidation is returned for caller input that breaks a documented limit.
	KindValidation
	// KindRequest is a network failure, a non-success HTTP status, or a provider-signalled error.
	KindRequest
	// KindParse is a structural mismatch in the provider response.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRequest:
		return "request"
	case KindParse:
		return "parse"
	default:
		return "internal"
	}
}

// RouteError is the error type returned by every routemodel operation.
type RouteError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Path       string `json:"path,omitempty"`
	Guidance   string `json:"guidance,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *RouteError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %s", e.Path)
	}
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *RouteError) Unwrap() error {
	return e.Err
}

// NewError creates a new RouteError with the given kind, code and message
func NewError(kind Kind, code ErrorCode, message string) *RouteError {
	return &RouteError{
		Kind:    kind,
		Code:    string(code),
		Message: message,
	}
}

// WithGuidance adds guidance information to the error
func (e *RouteError) WithGuidance(guidance string) *RouteError {
	e.Guidance = guidance
	return e
}

// WithDetail attaches provider-supplied detail to the error
func (e *RouteError) WithDetail(detail string) *RouteError {
	e.Detail = detail
	return e
}

// WithPath records the response path where a parse error occurred
func (e *RouteError) WithPath(path string) *RouteError {
	e.Path = path
	return e
}

// WithCause wraps the underlying error
func (e *RouteError) WithCause(err error) *RouteError {
	e.Err = err
	return e
}

// ToMCPResult converts the error to an MCP tool result
func (e *RouteError) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}

	return mcp.NewToolResultError(string(errorJSON))
}

// ServiceError creates a request error for an external service failure
func ServiceError(service string, statusCode int, detail string) *RouteError {
	var code ErrorCode
	var guidance string

	switch statusCode {
	case http.StatusTooManyRequests:
		code = ErrRateLimit
		guidance = "The service is rate-limited. Please try again in a few moments."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. Try a route with fewer waypoints."
	case http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "The request was invalid. Check waypoints and options and try again."
	case http.StatusUnauthorized, http.StatusForbidden:
		code = ErrUnauthorized
		guidance = "Check that the API key is valid for the Routes API."
	case http.StatusInternalServerError:
		code = ErrInternalError
		guidance = "The server encountered an error. This is likely temporary, please try again later."
	case http.StatusServiceUnavailable:
		code = ErrServiceUnavailable
		guidance = "The service is temporarily unavailable. Please try again later."
	default:
		code = ErrServiceUnavailable
		guidance = "Please try again later or modify your request parameters."
	}

	e := NewError(KindRequest, code, fmt.Sprintf("%s service error: HTTP status %d", service, statusCode)).
		WithDetail(detail).
		WithGuidance(guidance)
	e.StatusCode = statusCode
	return e
}

// NetworkError creates a request error for a transport-level failure
func NetworkError(service string, err error) *RouteError {
	return NewError(KindRequest, ErrNetworkError, fmt.Sprintf("%s request failed", service)).
		WithCause(err).
		WithDetail(err.Error())
}

// ParseError creates a parse error for a structural mismatch at path
func ParseError(code ErrorCode, path, message string) *RouteError {
	return NewError(KindParse, code, message).WithPath(path)
}

// NewValidationError creates an error for validation failures
func NewValidationError(code ErrorCode, message string) *RouteError {
	return NewError(KindValidation, code, message).
		WithGuidance("Please correct the parameters and try again.")
}

// KindOf reports the Kind of err, or KindInternal when err is not a RouteError.
func KindOf(err error) Kind {
	var re *RouteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// IsRequestError reports whether err is a request error
func IsRequestError(err error) bool {
	return err != nil && KindOf(err) == KindRequest
}

// IsCancelled reports whether err comes from a request abandoned by its caller
func IsCancelled(err error) bool {
	var re *RouteError
	if errors.As(err, &re) && re.Code == string(ErrRequestCancelled) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsParseError reports whether err is a parse error
func IsParseError(err error) bool {
	return err != nil && KindOf(err) == KindParse
}
