// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package errors provides the application error taxonomy. Services return
// AppError values (or wrap sentinels); the API layer maps them to HTTP
// responses via HTTPStatusCode and the api/errors converter.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the application.
const (
	CodeInternal         = "INTERNAL"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeTimeout          = "TIMEOUT"
	CodeDatabase         = "DATABASE"
	CodeRuleParse        = "RULE_PARSE"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrTimeout            = errors.New("timeout")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrRateLimited        = errors.New("rate limited")
)

// AppError is a structured application error with a machine-readable code,
// a human-readable message, and an HTTP status for the API layer.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a details map to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithDetail attaches a single detail key/value to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithHTTPStatus overrides the HTTP status.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// New creates an AppError with the given code and message.
// The HTTP status defaults to 500; use NewWithStatus or the convenience
// constructors for anything else.
func New(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Newf creates an AppError with a formatted message.
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// NewWithStatus creates an AppError with an explicit HTTP status.
func NewWithStatus(code, message string, status int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap wraps an error in an AppError.
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// WrapWithStatus wraps an error with an explicit HTTP status.
func WrapWithStatus(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// ============================================================================
// Convenience constructors
// ============================================================================

// NotFound returns a 404 AppError for the named resource.
func NotFound(resource string) *AppError {
	return NewWithStatus(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// AlreadyExists returns a 409 AppError for the named resource.
func AlreadyExists(resource string) *AppError {
	return NewWithStatus(CodeConflict, resource+" already exists", http.StatusConflict)
}

// InvalidInput returns a 400 AppError.
func InvalidInput(message string) *AppError {
	return NewWithStatus(CodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized returns a 401 AppError.
func Unauthorized(message string) *AppError {
	return NewWithStatus(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden returns a 403 AppError.
func Forbidden(message string) *AppError {
	return NewWithStatus(CodeForbidden, message, http.StatusForbidden)
}

// Internal returns a 500 AppError.
func Internal(message string) *AppError {
	return NewWithStatus(CodeInternal, message, http.StatusInternalServerError)
}

// ValidationFailed returns a 400 AppError carrying per-field messages.
func ValidationFailed(fields map[string]string) *AppError {
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return NewWithStatus(CodeValidationFailed, "validation failed", http.StatusBadRequest).
		WithDetails(details)
}

// ============================================================================
// Typed errors
// ============================================================================

// NotFoundError marks a missing resource.
type NotFoundError struct{ *AppError }

// Unwrap exposes the embedded AppError so errors.As finds it in the chain.
func (e *NotFoundError) Unwrap() error { return e.AppError }

// NewNotFoundError creates a typed not-found error for the named resource.
func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{AppError: NotFound(resource)}
}

// IsNotFoundError reports whether err is (or wraps) a NotFoundError, an
// AppError with the not-found code, or the ErrNotFound sentinel.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) || errors.Is(err, ErrNotFound) {
		return true
	}
	ae, ok := GetAppError(err)
	return ok && ae.Code == CodeNotFound
}

// ForbiddenError marks a permission denial.
type ForbiddenError struct{ *AppError }

func (e *ForbiddenError) Unwrap() error { return e.AppError }

// NewForbiddenError creates a typed forbidden error.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{AppError: Forbidden(message)}
}

// IsForbiddenError reports whether err is (or wraps) a ForbiddenError, an
// AppError with the forbidden code, or the ErrForbidden sentinel.
func IsForbiddenError(err error) bool {
	var fe *ForbiddenError
	if errors.As(err, &fe) || errors.Is(err, ErrForbidden) {
		return true
	}
	ae, ok := GetAppError(err)
	return ok && ae.Code == CodeForbidden
}

// ValidationError marks invalid caller input.
type ValidationError struct{ *AppError }

func (e *ValidationError) Unwrap() error { return e.AppError }

// NewValidationError creates a typed validation error.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		AppError: NewWithStatus(CodeValidationFailed, message, http.StatusBadRequest),
	}
}

// IsValidationError reports whether err is (or wraps) a ValidationError, an
// AppError with a validation code, or one of the input sentinels.
func IsValidationError(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput) {
		return true
	}
	ae, ok := GetAppError(err)
	return ok && (ae.Code == CodeValidation || ae.Code == CodeValidationFailed || ae.Code == CodeBadRequest)
}

// ConflictError marks a uniqueness or state conflict.
type ConflictError struct{ *AppError }

func (e *ConflictError) Unwrap() error { return e.AppError }

// NewConflictError creates a typed conflict error.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{
		AppError: NewWithStatus(CodeConflict, message, http.StatusConflict),
	}
}

// IsConflictError reports whether err is (or wraps) a ConflictError, an
// AppError with the conflict code, or the ErrConflict sentinel.
func IsConflictError(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) || errors.Is(err, ErrConflict) {
		return true
	}
	ae, ok := GetAppError(err)
	return ok && ae.Code == CodeConflict
}

// RuleParseError marks a malformed recurrence rule. It is never surfaced to
// API callers during expansion; creation-time validation converts it to a
// ValidationError instead.
type RuleParseError struct{ *AppError }

func (e *RuleParseError) Unwrap() error { return e.AppError }

// NewRuleParseError creates a typed rule-parse error wrapping the cause.
func NewRuleParseError(err error) *RuleParseError {
	return &RuleParseError{
		AppError: WrapWithStatus(err, CodeRuleParse, "malformed recurrence rule", http.StatusBadRequest),
	}
}

// IsRuleParseError reports whether err is (or wraps) a RuleParseError.
func IsRuleParseError(err error) bool {
	var re *RuleParseError
	return errors.As(err, &re)
}

// ============================================================================
// Inspection helpers
// ============================================================================

// IsUnauthorizedError reports whether err carries an authentication failure.
func IsUnauthorizedError(err error) bool {
	if ae, ok := GetAppError(err); ok && ae.Code == CodeUnauthorized {
		return true
	}
	return errors.Is(err, ErrUnauthorized)
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatusCode returns the HTTP status for an error. AppErrors carry their
// own status; sentinels map to conventional codes; anything else is a 500.
func HTTPStatusCode(err error) int {
	if ae, ok := GetAppError(err); ok {
		return ae.HTTPStatus
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
