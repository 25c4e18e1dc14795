package session

import (
	"context"
	"errors"

	dErrors "vaultspark/pkg/domain-errors"
)

// authError normalises a provider failure into one of the three auth codes.
// Unknown failures are treated as the provider being unreachable.
func authError(err error) error {
	if err == nil {
		return nil
	}
	if dErrors.IsAuthError(err) {
		return err
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeUnauthorized, dErrors.CodeNotFound:
		return dErrors.Wrap(err, dErrors.CodeInvalidCredentials, "invalid email or password")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeNetworkFailure, "identity provider did not respond")
	}
	return dErrors.Wrap(err, dErrors.CodeNetworkFailure, "identity provider unavailable")
}

func failureMessage(op string, code dErrors.Code) string {
	prefix := "Error signing in"
	if op == opSignUp {
		prefix = "Error signing up"
	}
	switch code {
	case dErrors.CodeInvalidCredentials:
		return prefix + ": invalid email or password"
	case dErrors.CodeUnconfirmedAccount:
		return prefix + ": email not confirmed"
	default:
		return prefix + ": could not reach the identity service"
	}
}
