package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"authrelay/internal/authcookie"
	"authrelay/internal/domain"
)

// UserHandler relays the current-user endpoints
type UserHandler struct {
	api     IdentityAPI
	cookies *authcookie.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(api IdentityAPI, cookies *authcookie.Store) *UserHandler {
	return &UserHandler{api: api, cookies: cookies}
}

// Me returns the current user
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.Me(r.Context(), r.Header.Get("Cookie"))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	authcookie.Apply(w, h.cookies.Store(r, resp.SetCookies))
	writeRaw(w, resp.Status, resp.Body)
}

// UpdateMe patches the current user
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	resp, err := h.api.UpdateMe(r.Context(), r.Header.Get("Cookie"), body)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	authcookie.Apply(w, h.cookies.Store(r, resp.SetCookies))
	writeRaw(w, resp.Status, resp.Body)
}
