package handler

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"authrelay/internal/middleware"
	"authrelay/internal/observability"
)

// NewFrontendProxy forwards page requests to the frontend origin. The
// incoming Cookie header is forwarded as the edge guard left it.
func NewFrontendProxy(target *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			// Guarded pages carry the guard's no-store instead of the frontend's caching.
			if _, guarded := middleware.GetAuthDecision(resp.Request.Context()); guarded {
				resp.Header.Del("Cache-Control")
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			observability.FromContext(r.Context()).Error("frontend unavailable",
				"path", r.URL.Path, "error", err)
			http.Error(w, `{"error":"frontend unavailable"}`, http.StatusBadGateway)
		},
	}
}
