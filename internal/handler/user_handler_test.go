package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authrelay/internal/authcookie"
	"authrelay/internal/testutil"
	"authrelay/internal/upstream"
)

func newUserHandler(t *testing.T) (*UserHandler, *testutil.FakeUpstream) {
	t.Helper()
	fake := testutil.NewFakeUpstream()
	t.Cleanup(fake.Close)

	policy, err := authcookie.ResolveCookiePolicy(authcookie.ModeSameSite)
	require.NoError(t, err)

	return NewUserHandler(upstream.NewClient(fake.URL, time.Second), authcookie.NewStore(policy)), fake
}

func TestUserHandler_Me(t *testing.T) {
	h, fake := newUserHandler(t)
	fake.Respond(http.MethodGet, upstream.PathMe, http.StatusOK, `{"id":"u1","email":"ann@example.com","username":"ann"}`)

	w := httptest.NewRecorder()
	h.Me(w, testutil.NewRequestWithCookies(t, http.MethodGet, "/api/users/me", "accessToken", "a1"))

	testutil.AssertStatusCode(t, w, http.StatusOK)
	testutil.AssertHeader(t, w, "Content-Type", "application/json")
	assert.JSONEq(t, `{"id":"u1","email":"ann@example.com","username":"ann"}`, w.Body.String())

	calls := fake.Requests(http.MethodGet, upstream.PathMe)
	require.Len(t, calls, 1)
	assert.Equal(t, "accessToken=a1", calls[0].Cookie)
}

func TestUserHandler_Me_Unauthorized(t *testing.T) {
	h, fake := newUserHandler(t)
	fake.Respond(http.MethodGet, upstream.PathMe, http.StatusUnauthorized, `{"message":"Unauthorized"}`)

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	testutil.AssertStatusCode(t, w, http.StatusUnauthorized)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
}

func TestUserHandler_UpdateMe(t *testing.T) {
	h, fake := newUserHandler(t)
	fake.Respond(http.MethodPatch, upstream.PathMe, http.StatusOK, `{"id":"u1","username":"bob"}`)

	req := jsonRequest(http.MethodPatch, "/api/users/me", `{"username":"bob","role":"admin"}`)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "a1"})
	w := httptest.NewRecorder()

	h.UpdateMe(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.JSONEq(t, `{"id":"u1","username":"bob"}`, w.Body.String())

	calls := fake.Requests(http.MethodPatch, upstream.PathMe)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"username":"bob"}`, calls[0].Body)
	assert.Equal(t, "accessToken=a1", calls[0].Cookie)
}

func TestUserHandler_UpdateMe_EmptyPatchSendsNoFields(t *testing.T) {
	h, fake := newUserHandler(t)
	fake.Respond(http.MethodPatch, upstream.PathMe, http.StatusOK, `{"id":"u1","username":"ann"}`)

	w := httptest.NewRecorder()
	h.UpdateMe(w, jsonRequest(http.MethodPatch, "/api/users/me", `{}`))

	testutil.AssertStatusCode(t, w, http.StatusOK)
	calls := fake.Requests(http.MethodPatch, upstream.PathMe)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{}`, calls[0].Body)
}

func TestUserHandler_UpdateMe_InvalidBody(t *testing.T) {
	h, fake := newUserHandler(t)

	w := httptest.NewRecorder()
	h.UpdateMe(w, jsonRequest(http.MethodPatch, "/api/users/me", `{`))

	testutil.AssertJSONError(t, w, http.StatusBadRequest, "Invalid request body")
	assert.Empty(t, fake.Requests(http.MethodPatch, upstream.PathMe))
}

func TestUserHandler_Me_UpstreamDown(t *testing.T) {
	h, fake := newUserHandler(t)
	fake.Close()

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	testutil.AssertJSONError(t, w, http.StatusBadGateway, "upstream unavailable")
}
