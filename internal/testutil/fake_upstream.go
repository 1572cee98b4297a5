package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// FakeResponse is one scripted identity API answer
type FakeResponse struct {
	Status     int
	Body       string
	SetCookies []string
}

// RecordedRequest is what the fake identity API received
type RecordedRequest struct {
	Method string
	Path   string
	Cookie string
	Body   string
}

// FakeUpstream is an in-process identity API with scripted answers per "METHOD /path"
type FakeUpstream struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]FakeResponse
	requests  []RecordedRequest
}

// NewFakeUpstream starts a fake identity API. Unscripted routes answer 404.
func NewFakeUpstream() *FakeUpstream {
	f := &FakeUpstream{responses: make(map[string]FakeResponse)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// Respond scripts the answer for method and path
func (f *FakeUpstream) Respond(method, path string, status int, body string, setCookies ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = FakeResponse{Status: status, Body: body, SetCookies: setCookies}
}

// Requests returns the recorded requests for method and path
func (f *FakeUpstream) Requests(method, path string) []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Cookie: r.Header.Get("Cookie"),
		Body:   string(body),
	})
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		return
	}

	for _, c := range resp.SetCookies {
		w.Header().Add("Set-Cookie", c)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	io.WriteString(w, resp.Body)
}
