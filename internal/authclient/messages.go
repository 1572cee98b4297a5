package authclient

import (
	"errors"

	"authrelay/internal/domain"
)

// Message returns the user-facing text for an error from this package.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsConflict(err):
		return "An account with this email already exists"
	case domain.IsValidation(err):
		return "Please check the email and password"
	case domain.IsUnauthorized(err):
		return "Invalid email or password"
	case domain.IsServerError(err), errors.Is(err, domain.ErrUpstreamUnavailable):
		return "The service is unavailable, try again later"
	default:
		return "Something went wrong"
	}
}
