// Package domainerrors carries a stable error code alongside a human message so
// services can classify failures without string matching. Transport layers map
// codes to status codes; services branch on codes with HasCode.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"

	// CodeValidation is a local, pre-network input failure. The user must
	// correct the input; it is never retried automatically.
	CodeValidation Code = "validation_error"
	// CodeBackendContract means a backend reply matched no known envelope.
	CodeBackendContract Code = "backend_contract_error"
	// CodeTransport is a network or HTTP failure talking to the backend.
	CodeTransport Code = "transport_error"
	// CodeBusinessRejection means the backend understood the request and said no.
	CodeBusinessRejection Code = "business_rejection"
	// CodeOnboardingStart is a failed session bootstrap; login cannot proceed.
	CodeOnboardingStart Code = "onboarding_start_error"
	// CodeNotInitialized is a programmer error: identity read before initialize.
	CodeNotInitialized Code = "not_initialized"
	// CodeIdentityMismatch is a programmer error: a reply or call refers to a
	// different identity than the one held by the session.
	CodeIdentityMismatch Code = "identity_mismatch"
	// CodeGateClosed rejects navigation past a step whose gate is not open.
	CodeGateClosed Code = "gate_closed"
	// CodeInFlight rejects a resubmission while the same step is pending.
	CodeInFlight Code = "request_in_flight"
)

// Error is the coded error type.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
// A nil err yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost coded error carries code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or "" when err carries none.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// Retryable reports whether the user may resubmit the same step unchanged.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeTransport, CodeBusinessRejection, CodeInFlight:
		return true
	default:
		return false
	}
}

// Fatal reports whether err aborts the current operation and leaves the
// restart decision to the caller.
func Fatal(err error) bool {
	switch CodeOf(err) {
	case CodeBackendContract, CodeNotInitialized, CodeIdentityMismatch, CodeOnboardingStart, CodeInternal:
		return true
	default:
		return false
	}
}

// ToHTTPStatus maps a code to the status the HTTP layer returns.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInFlight, CodeGateClosed:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeBusinessRejection:
		return http.StatusUnprocessableEntity
	case CodeTransport, CodeOnboardingStart:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
