// Package errors defines the typed error carried from services to the HTTP
// layer. The code decides the status and whether details reach the client.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeStateConflict       Code = "STATE_CONFLICT"
	CodeIdempotency         Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit           Code = "RATE_LIMIT_EXCEEDED"
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeSubscriptionBlocked Code = "SUBSCRIPTION_BLOCKED"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeDependency          Code = "DEPENDENCY_ERROR"
)

// Metadata is the transport policy for a code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	withDetails = 1 << iota
	retryable
)

func policy(status int, public string, flags int) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		DetailsAllowed: flags&withDetails != 0,
		Retryable:      flags&retryable != 0,
	}
}

var policies = map[Code]Metadata{
	CodeValidation:          policy(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized:        policy(http.StatusUnauthorized, "authentication required", 0),
	CodeForbidden:           policy(http.StatusForbidden, "access denied", 0),
	CodeNotFound:            policy(http.StatusNotFound, "resource not found", 0),
	CodeConflict:            policy(http.StatusConflict, "conflict detected", 0),
	CodeStateConflict:       policy(http.StatusUnprocessableEntity, "state transition disallowed", withDetails),
	CodeIdempotency:         policy(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:           policy(http.StatusTooManyRequests, "rate limit exceeded", 0),
	CodeInsufficientStock:   policy(http.StatusConflict, "insufficient stock", withDetails),
	CodeSubscriptionBlocked: policy(http.StatusForbidden, "subscription inactive", withDetails),
	CodeInternal:            policy(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:          policy(http.StatusServiceUnavailable, "dependency unavailable", withDetails|retryable),
}

// MetadataFor returns the policy for code. Unknown codes are treated as
// internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := policies[code]; ok {
		return meta
	}
	return policies[CodeInternal]
}

// Error is immutable once built; WithDetails returns a copy so package-level
// sentinels can be shared.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.details = details
	return &clone
}

// Is matches on code and message, so a copy carrying details still matches
// the sentinel it was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e == t || (e.code == t.code && e.message == t.message)
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost typed error in the chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the code of err. Untyped errors are internal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}
