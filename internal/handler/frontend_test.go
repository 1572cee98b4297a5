package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authrelay/internal/domain"
	"authrelay/internal/middleware"
	"authrelay/internal/testutil"
)

func TestFrontendProxy_ForwardsCookieHeader(t *testing.T) {
	var gotCookie, gotPath string
	frontend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotPath = r.URL.RequestURI()
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write([]byte("<html>notes</html>"))
	}))
	defer frontend.Close()

	target, err := url.Parse(frontend.URL)
	require.NoError(t, err)

	req := testutil.NewRequestWithCookies(t, http.MethodGet, "/notes?tag=work", "accessToken", "fresh")
	w := httptest.NewRecorder()

	NewFrontendProxy(target).ServeHTTP(w, req)

	testutil.AssertStatusCode(t, w, http.StatusOK)
	assert.Equal(t, "accessToken=fresh", gotCookie)
	assert.Equal(t, "/notes?tag=work", gotPath)
	assert.Equal(t, "<html>notes</html>", w.Body.String())
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
}

func TestFrontendProxy_GuardedResponseDropsFrontendCaching(t *testing.T) {
	frontend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Add("Set-Cookie", "theme=dark; Path=/")
	}))
	defer frontend.Close()

	target, err := url.Parse(frontend.URL)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(middleware.WithAuthDecision(req.Context(), domain.AuthDecision{HasAccessToken: true}))
	w := httptest.NewRecorder()
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Add("Set-Cookie", "accessToken=fresh; Path=/; HttpOnly")

	NewFrontendProxy(target).ServeHTTP(w, req)

	assert.Equal(t, []string{"no-store"}, w.Header().Values("Cache-Control"))
	assert.ElementsMatch(t, []string{"accessToken=fresh; Path=/; HttpOnly", "theme=dark; Path=/"}, w.Header().Values("Set-Cookie"))
}

func TestFrontendProxy_Unavailable(t *testing.T) {
	frontend := httptest.NewServer(http.NotFoundHandler())
	target, err := url.Parse(frontend.URL)
	require.NoError(t, err)
	frontend.Close()

	w := httptest.NewRecorder()
	NewFrontendProxy(target).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/about", nil))

	testutil.AssertJSONError(t, w, http.StatusBadGateway, "frontend unavailable")
}
