// Package errors defines custom error types and error handling utilities for the UATS console core.
// This package provides structured error types that carry a machine-readable code and an HTTP status
// so that the orchestration layer, the console server and the CLI report failures uniformly.
package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/uats/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// UATSError represents a structured error with additional metadata
type UATSError interface {
	error

	// Code returns the machine-readable error code
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) UATSError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) UATSError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

// baseError is the internal implementation of UATSError
type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// Error implements the error interface
func (e *baseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) Code() constants.ErrorCode {
	return e.code
}

func (e *baseError) HTTPStatus() int {
	return e.httpStatus
}

func (e *baseError) Description() string {
	return e.description
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) WithCause(cause error) UATSError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) UATSError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new UATSError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) UATSError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Precondition Errors
// ================================================================================

// ErrPrecondition creates an error for an action that cannot start
func ErrPrecondition(message string) UATSError {
	return NewError(
		constants.ErrCodePreconditionFailed,
		http.StatusPreconditionFailed,
		"The action requires a signed-in user, a bearer token or a required field that is missing.",
		message,
	)
}

// ErrNoAuthToken creates the error raised when no bearer token is available
func ErrNoAuthToken() UATSError {
	return ErrPrecondition(constants.MsgNoAuthToken).
		WithMetadata("missing", "token")
}

// ErrMissingParameter creates a missing required parameter error
func ErrMissingParameter(paramName string) UATSError {
	return ErrPrecondition(fmt.Sprintf("Missing required parameter: %s", paramName)).
		WithMetadata("parameter", paramName)
}

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) UATSError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is malformed or contains an invalid parameter value.",
		message,
	)
}

// ================================================================================
// Backend Errors
// ================================================================================

// ErrBackend creates an error for a non-2xx backend response
func ErrBackend(status int, message string) UATSError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	httpStatus := status
	if status >= http.StatusInternalServerError || status < http.StatusBadRequest {
		httpStatus = http.StatusBadGateway
	}
	return NewError(
		constants.ErrCodeBackend,
		httpStatus,
		"The backend API rejected the request.",
		message,
	).WithMetadata("status", status)
}

// ErrUnauthorized creates an error for a 401 backend response
func ErrUnauthorized(message string) UATSError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", http.StatusUnauthorized)
	}
	return NewError(
		constants.ErrCodeUnauthorized,
		http.StatusUnauthorized,
		"The bearer token was rejected; sign in again.",
		message,
	).WithMetadata("status", http.StatusUnauthorized)
}

// ErrTransport creates an error for a backend that could not be reached
func ErrTransport(cause error) UATSError {
	return NewError(
		constants.ErrCodeTransport,
		http.StatusBadGateway,
		"The backend API could not be reached.",
		cause.Error(),
	).WithCause(cause)
}

// ================================================================================
// Ceremony Errors
// ================================================================================

// ErrCeremonyCancelled creates an error for a dismissed or disallowed authenticator prompt
func ErrCeremonyCancelled(message string) UATSError {
	return NewError(
		constants.ErrCodeCeremonyCancelled,
		http.StatusConflict,
		"The authenticator ceremony was cancelled or not allowed.",
		message,
	)
}

// ErrCeremonyUnsupported creates an error for a platform without a usable authenticator
func ErrCeremonyUnsupported(message string) UATSError {
	return NewError(
		constants.ErrCodeCeremonyUnsupported,
		http.StatusNotImplemented,
		"WebAuthn is not supported on this platform.",
		message,
	)
}

// ErrCeremonyFailed creates an error for any other authenticator failure
func ErrCeremonyFailed(message string) UATSError {
	return NewError(
		constants.ErrCodeCeremonyFailed,
		http.StatusUnprocessableEntity,
		"The authenticator ceremony failed.",
		message,
	)
}

// ================================================================================
// Generic Errors
// ================================================================================

// ErrNotFound creates a not_found error
func ErrNotFound(resource string, id string) UATSError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"The requested resource was not found.",
		fmt.Sprintf("%s not found: %s", resource, id),
	).WithMetadata("resource", resource).
		WithMetadata("id", id)
}

// ErrInternal creates an internal_error error
func ErrInternal(message string) UATSError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		"An unexpected condition prevented the request from completing.",
		message,
	)
}

// ErrDuplicateRequest creates the error for a replayed idempotency key
func ErrDuplicateRequest(key string) UATSError {
	return NewError(
		constants.ErrCodeDuplicateRequest,
		http.StatusConflict,
		"This request has already been processed.",
		fmt.Sprintf("Idempotency key already used: %s", key),
	).WithMetadata("idempotency_key", key)
}

// ================================================================================
// Error Inspection Utilities
// ================================================================================

// AsUATSError finds the first UATSError in err's chain
func AsUATSError(err error) (UATSError, bool) {
	var uErr UATSError
	if goerrors.As(err, &uErr) {
		return uErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code
func HasCode(err error, code constants.ErrorCode) bool {
	if uErr, ok := AsUATSError(err); ok {
		return uErr.Code() == code
	}
	return false
}

// IsPrecondition checks if an error was raised before any network call
func IsPrecondition(err error) bool {
	return HasCode(err, constants.ErrCodePreconditionFailed)
}

// IsUnauthorized checks if the backend rejected the bearer token
func IsUnauthorized(err error) bool {
	return HasCode(err, constants.ErrCodeUnauthorized)
}

// IsBackend checks if an error came from a non-2xx backend response
func IsBackend(err error) bool {
	return HasCode(err, constants.ErrCodeBackend) || IsUnauthorized(err)
}

// IsTransport checks if the backend could not be reached
func IsTransport(err error) bool {
	return HasCode(err, constants.ErrCodeTransport)
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for console error responses
type ErrorResponse struct {
	Error            string                 `json:"error"`
	Message          string                 `json:"message"`
	ErrorDescription string                 `json:"error_description,omitempty"`
	Redirect         string                 `json:"redirect,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts a UATSError to an ErrorResponse
func ToErrorResponse(err UATSError) *ErrorResponse {
	resp := &ErrorResponse{
		Error:            string(err.Code()),
		Message:          err.Error(),
		ErrorDescription: err.Description(),
	}
	if len(err.Metadata()) > 0 {
		resp.Metadata = err.Metadata()
	}
	return resp
}

// ToGenericErrorResponse converts any error to an ErrorResponse
func ToGenericErrorResponse(err error) *ErrorResponse {
	if uErr, ok := AsUATSError(err); ok {
		return ToErrorResponse(uErr)
	}

	return &ErrorResponse{
		Error:            string(constants.ErrCodeInternal),
		Message:          err.Error(),
		ErrorDescription: "An unexpected error occurred",
	}
}

// StatusOf returns the HTTP status a console handler should answer with
func StatusOf(err error) int {
	if uErr, ok := AsUATSError(err); ok && uErr.HTTPStatus() != 0 {
		return uErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

//Personal.AI order the ending
