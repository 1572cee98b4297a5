package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"authrelay/internal/authcookie"
	"authrelay/internal/domain"
	"authrelay/internal/observability"
)

// AuthHandler relays the authentication endpoints and owns the session cookies
type AuthHandler struct {
	api     IdentityAPI
	cookies *authcookie.Store
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(api IdentityAPI, cookies *authcookie.Store) *AuthHandler {
	return &AuthHandler{
		api:     api,
		cookies: cookies,
	}
}

// LogoutResponse is the body of a successful logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	resp, err := h.api.Register(r.Context(), body)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	authcookie.Apply(w, h.cookies.Store(r, resp.SetCookies))
	writeRaw(w, resp.Status, resp.Body)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	resp, err := h.api.Login(r.Context(), body)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	authcookie.Apply(w, h.cookies.Store(r, resp.SetCookies))
	writeRaw(w, resp.Status, resp.Body)
}

// Logout ends the upstream session. The cookie pair is cleared even when upstream fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, err := h.api.Logout(r.Context(), r.Header.Get("Cookie"))
	h.cookies.Clear(w, r)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LogoutResponse{Message: "Logged out successfully"})
}

// Session checks the current session and relays any refreshed cookies.
// Every failure answers null so callers can treat the body uniformly.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookieHeader := r.Header.Get("Cookie")
	if cookieHeader == "" {
		writeRaw(w, http.StatusOK, nullBody)
		return
	}

	resp, err := h.api.Session(r.Context(), cookieHeader)
	if err == nil {
		authcookie.Apply(w, h.cookies.Store(r, resp.SetCookies))
		writeRaw(w, resp.Status, resp.Body)
		return
	}

	logger := observability.FromContext(r.Context())

	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &ue) && domain.IsServerError(err):
		// A 5xx does not prove the session invalid; cookies stay.
		logger.Error("session check failed upstream", "status", ue.Status)
		writeRaw(w, ue.Status, nullBody)
	case errors.As(err, &ue):
		logger.Debug("session rejected", "status", ue.Status)
		h.cookies.Clear(w, r)
		authcookie.Apply(w, h.cookies.Store(r, ue.SetCookies))
		writeRaw(w, ue.Status, nullBody)
	default:
		logger.Error("session check unavailable", "error", err)
		writeRaw(w, http.StatusBadGateway, nullBody)
	}
}

// decodeCredentials reads the login/register payload and re-encodes only known fields.
func decodeCredentials(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var req domain.Credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return nil, false
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"Email and password are required"}`, http.StatusBadRequest)
		return nil, false
	}

	body, err := json.Marshal(req)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return nil, false
	}
	return body, true
}
