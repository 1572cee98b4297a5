package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"authrelay/internal/domain"
	"authrelay/internal/observability"
	"authrelay/internal/upstream"
)

const maxRequestBytes = 1 << 20

// IdentityAPI is the upstream identity service as seen by the relay handlers.
type IdentityAPI interface {
	Login(ctx context.Context, body []byte) (*upstream.Response, error)
	Register(ctx context.Context, body []byte) (*upstream.Response, error)
	Logout(ctx context.Context, cookieHeader string) (*upstream.Response, error)
	Session(ctx context.Context, cookieHeader string) (*upstream.Response, error)
	Me(ctx context.Context, cookieHeader string) (*upstream.Response, error)
	UpdateMe(ctx context.Context, cookieHeader string, body []byte) (*upstream.Response, error)
}

var nullBody = []byte("null")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRaw relays an upstream JSON body verbatim. An empty body becomes null.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	if len(body) == 0 {
		body = nullBody
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeUpstreamError relays an upstream error status and body, or 502 on transport failure.
// rejectionReason labels an upstream 4xx for logs.
func rejectionReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsUnauthorized(err):
		return "unauthorized"
	default:
		return "rejected"
	}
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())

	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &ue):
		if domain.IsServerError(err) {
			logger.Error("upstream server error", "path", r.URL.Path, "status", ue.Status)
		} else {
			logger.Debug("upstream rejected request", "path", r.URL.Path, "status", ue.Status, "reason", rejectionReason(err))
		}
		writeRaw(w, ue.Status, ue.Body)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logger.Error("upstream unavailable", "path", r.URL.Path, "error", err)
		http.Error(w, `{"error":"upstream unavailable"}`, http.StatusBadGateway)
	default:
		logger.Error("relay failed", "path", r.URL.Path, "error", err)
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
	}
}
