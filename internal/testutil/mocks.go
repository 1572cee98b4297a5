package testutil

import (
	"context"
	"sync"

	"authrelay/internal/refresh"
)

// MockRefresher is a scripted session refresher
type MockRefresher struct {
	mu        sync.Mutex
	Result    refresh.Result
	Panic     any
	Headers   []string
	Forwarded []refresh.Forwarded
}

// NewMockRefresher creates a refresher answering with result
func NewMockRefresher(result refresh.Result) *MockRefresher {
	return &MockRefresher{Result: result}
}

func (m *MockRefresher) Refresh(ctx context.Context, cookieHeader string) refresh.Result {
	m.mu.Lock()
	m.Headers = append(m.Headers, cookieHeader)
	f, _ := refresh.ForwardedFrom(ctx)
	m.Forwarded = append(m.Forwarded, f)
	result, p := m.Result, m.Panic
	m.mu.Unlock()

	if p != nil {
		panic(p)
	}
	return result
}

// Calls returns how many times Refresh ran
func (m *MockRefresher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Headers)
}

// RefreshOK is a successful refresh issuing the given Set-Cookie lines
func RefreshOK(setCookies ...string) refresh.Result {
	return refresh.Result{OK: true, Status: 200, Body: []byte(`{"success":true}`), NewCookies: setCookies, Outcome: refresh.OutcomeOK}
}

// RefreshRejected is a 4xx refresh returning the given Set-Cookie lines
func RefreshRejected(status int, setCookies ...string) refresh.Result {
	return refresh.Result{Status: status, NewCookies: setCookies, Outcome: refresh.OutcomeRejected}
}

// RefreshServerError is a transient 5xx refresh
func RefreshServerError(status int) refresh.Result {
	return refresh.Result{Status: status, Transient: true, Outcome: refresh.OutcomeServerError}
}
