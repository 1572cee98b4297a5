package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUpstreamUnavailable wraps transport failures (DNS, connect, timeout).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidRedirect     = errors.New("invalid redirect target")
)

// UpstreamError is a non-2xx answer from the identity API. Body is relayed
// verbatim and SetCookies keeps any cookie instructions sent with the error.
type UpstreamError struct {
	Status     int
	Body       []byte
	SetCookies []string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.Status, http.StatusText(e.Status))
}

func statusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// IsValidation reports a 400 from upstream (validation failure or bad input).
func IsValidation(err error) bool { return statusOf(err) == http.StatusBadRequest }

// IsConflict reports a 409 from upstream, e.g. a duplicate account.
func IsConflict(err error) bool { return statusOf(err) == http.StatusConflict }

// IsUnauthorized reports a 401 or 403 from upstream.
func IsUnauthorized(err error) bool {
	s := statusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsServerError reports a 5xx from upstream. A 5xx never proves a session invalid.
func IsServerError(err error) bool { return statusOf(err) >= http.StatusInternalServerError }
