package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails the test if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("expected true: %s", msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("expected false: %s", msg)
	}
}

// AssertContains fails if s does not contain substring
func AssertContains(t *testing.T, s, substring string) {
	t.Helper()
	if !strings.Contains(s, substring) {
		t.Errorf("expected %q to contain %q", s, substring)
	}
}

// HTTP Test Helpers

// AssertStatusCode fails if the response status code doesn't match expected
func AssertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSONError fails if the response doesn't contain an error field with the expected message
func AssertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMsg string) {
	t.Helper()
	AssertStatusCode(t, w, expectedStatus)

	body := w.Body.String()
	if !strings.Contains(body, expectedMsg) {
		t.Errorf("expected error message %q in response, got: %s", expectedMsg, body)
	}
}

// AssertHeader fails if the response header doesn't match expected value
func AssertHeader(t *testing.T, w *httptest.ResponseRecorder, key, expected string) {
	t.Helper()
	got := w.Header().Get(key)
	if got != expected {
		t.Errorf("header %q: got %q, want %q", key, got, expected)
	}
}

// AssertHeaderContains fails if the response header doesn't contain expected substring
func AssertHeaderContains(t *testing.T, w *httptest.ResponseRecorder, key, substring string) {
	t.Helper()
	got := w.Header().Get(key)
	if !strings.Contains(got, substring) {
		t.Errorf("header %q: expected to contain %q, got %q", key, substring, got)
	}
}

// Request Helpers

// NewJSONRequest creates a new HTTP request with JSON body
func NewJSONRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes JSON response body into the given struct
func DecodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode JSON response: %v. Body: %s", err, w.Body.String())
	}
	return result
}

// NewRequestWithCookies creates a new HTTP request carrying the given name=value pairs
func NewRequestWithCookies(t *testing.T, method, url string, pairs ...string) *http.Request {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("cookie pairs must be name/value: %v", pairs)
	}
	req := httptest.NewRequest(method, url, nil)
	for i := 0; i < len(pairs); i += 2 {
		req.AddCookie(&http.Cookie{Name: pairs[i], Value: pairs[i+1]})
	}
	return req
}

// Cookie Helpers

// FindCookie returns the Set-Cookie with the given name, or nil
func FindCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AssertCookie fails if the response doesn't set a cookie with the expected name and value
func AssertCookie(t *testing.T, w *httptest.ResponseRecorder, name, value string) *http.Cookie {
	t.Helper()
	c := FindCookie(w, name)
	if c == nil {
		t.Fatalf("expected cookie %q not found in %v", name, w.Header().Values("Set-Cookie"))
	}
	if c.Value != value {
		t.Errorf("cookie %q: got value %q, want %q", name, c.Value, value)
	}
	return c
}

// AssertClearedCookie fails unless the response deletes the named cookie
func AssertClearedCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	c := FindCookie(w, name)
	if c == nil {
		t.Fatalf("expected cookie %q to be cleared, not found in %v", name, w.Header().Values("Set-Cookie"))
	}
	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cookie %q not cleared: value=%q max-age=%d", name, c.Value, c.MaxAge)
	}
	return c
}

// AssertNoSetCookie fails if the response sets any cookie
func AssertNoSetCookie(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if lines := w.Header().Values("Set-Cookie"); len(lines) > 0 {
		t.Errorf("expected no Set-Cookie, got %v", lines)
	}
}

// AssertRedirect fails unless the response is a redirect with the given status and Location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	AssertStatusCode(t, w, status)
	AssertHeader(t, w, "Location", location)
}
