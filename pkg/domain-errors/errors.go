// Package domainerrors defines coded errors shared by services and transports.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate them into coded domain errors so handlers can map
// codes to HTTP statuses without inspecting storage internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a category of domain error.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Membership-specific codes. Handlers surface these verbatim so clients
	// can distinguish failure kinds without parsing messages.
	CodeDuplicateCallSign Code = "duplicate_call_sign"
	CodeDuplicateEmail    Code = "duplicate_email"
	CodeDuplicatePayment  Code = "duplicate_payment"
	CodeInvalidDate       Code = "invalid_date"
	CodeWeakPassword      Code = "weak_password"
	CodePasswordMismatch  Code = "password_mismatch"
)

// Error is a coded domain error. The wrapped cause, if any, is reachable via
// errors.Unwrap for logging; the code and message are what callers act on.
type Error struct {
	ErrCode Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{ErrCode: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{ErrCode: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.ErrCode == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in the domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.ErrCode
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message, empty for non-domain errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status handlers should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidDate, CodeWeakPassword:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateCallSign, CodeDuplicateEmail, CodeDuplicatePayment:
		return http.StatusConflict
	case CodeUnauthorized, CodePasswordMismatch:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
