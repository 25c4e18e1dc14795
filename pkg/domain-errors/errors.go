// Package domainerrors carries typed, coded errors across layer boundaries.
//
// Services return these so the transport layer can translate a Code into a
// response without inspecting messages. Stores should return sentinel facts
// (see pkg/platform/sentinel) and let services pick the code.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// Authentication failures reported by the identity provider.
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeNetworkFailure     Code = "network_failure"
	CodeUnconfirmedAccount Code = "unconfirmed_account"

	// Wallet linking failures.
	CodeWalletProviderAbsent  Code = "wallet_provider_absent"
	CodeWalletRequestRejected Code = "wallet_request_rejected"

	// Persistence failures. Transient ones are worth retrying.
	CodePersistenceTransient Code = "persistence_transient"
	CodePersistencePermanent Code = "persistence_permanent"

	// Raised only for structurally malformed aggregation input.
	CodeAggregationInputInvalid Code = "aggregation_input_invalid"

	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain has code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// an empty Code when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsAuthError reports whether err is one of the identity provider failures.
func IsAuthError(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidCredentials, CodeNetworkFailure, CodeUnconfirmedAccount:
		return true
	}
	return false
}

// IsPersistenceError reports whether err is a transient or permanent
// persistence failure.
func IsPersistenceError(err error) bool {
	switch CodeOf(err) {
	case CodePersistenceTransient, CodePersistencePermanent:
		return true
	}
	return false
}
