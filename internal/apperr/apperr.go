package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Kind is the coarse failure class surfaced to callers.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindTransient    Kind = "transient"
	KindDependency   Kind = "dependency"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindFatal        Kind = "fatal"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeSlugConflict        Code = "SLUG_CONFLICT"
	CodeTaxonomyHasChildren Code = "TAXONOMY_HAS_CHILDREN"
	CodeTaxonomyInUse       Code = "TAXONOMY_IN_USE"
	CodeTaxonomyCycle       Code = "TAXONOMY_CYCLE"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeNotFound            Code = "NOT_FOUND"
	CodeStoreUnavailable    Code = "STORE_UNAVAILABLE"
	CodeTimeout             Code = "TIMEOUT"
	CodeDependencyFailed    Code = "DEPENDENCY_FAILED"
	CodeCooldown            Code = "COOLDOWN"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// Error is the error type every service returns.
type Error struct {
	Kind    Kind        `json:"kind"`
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches machine-readable details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// New builds an Error.
func New(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

func Validation(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message, nil)
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func NotFound(what string) *Error {
	return New(KindNotFound, CodeNotFound, what+" not found", nil)
}

func Conflict(code Code, message string) *Error {
	return New(KindConflict, code, message, nil)
}

func Dependency(message string, cause error) *Error {
	return New(KindDependency, CodeDependencyFailed, message, cause)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message, nil)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, CodeCooldown, message, nil)
}

func Fatal(message string, cause error) *Error {
	return New(KindFatal, CodeInternal, message, cause)
}

// KindOf returns the kind of err, KindFatal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// CodeOf returns the code of err, CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// FromStore translates persistence errors into the taxonomy. what names the
// resource for not-found messages.
func FromStore(err error, what string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTransient, CodeTimeout, "operation timed out, retry", err)
	}
	if errors.Is(err, context.Canceled) {
		return New(KindTransient, CodeTimeout, "operation cancelled, retry", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict(CodeSlugConflict, what+" already exists")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return Conflict(CodeSlugConflict, what+" already exists")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return New(KindTransient, CodeStoreUnavailable, "store unavailable, retry", err)
	}
	return Fatal("internal error", err)
}
