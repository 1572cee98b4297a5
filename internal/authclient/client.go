// Package authclient synchronizes a client's auth state with the relay's
// session endpoint. It reflects state only; redirects belong to the edge guard.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"authrelay/internal/domain"
)

const maxBodyBytes = 1 << 20

// Relay paths the client calls.
const (
	PathSession  = "/api/auth/session"
	PathMe       = "/api/users/me"
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathLogout   = "/api/auth/logout"
)

// Client talks to the relay with a cookie jar, like a browser would.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	state      *Store
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is kept if set.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the relay at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid relay URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			// Navigation decisions are the edge guard's; never follow them here.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		state:  newStore(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	return c, nil
}

// State returns the shared auth state.
func (c *Client) State() *Store { return c.state }

// Jar exposes the cookie jar for callers that seed or inspect cookies.
func (c *Client) Jar() http.CookieJar { return c.httpClient.Jar }

// Sync asks the session endpoint for the current user and updates the state
// for path. A null or failed session clears the state. If a newer Sync starts
// before this one finishes, this result is dropped and the returned state is
// the current snapshot.
func (c *Client) Sync(ctx context.Context, path string) (State, error) {
	gen := c.state.begin()

	user, err := c.fetchUser(ctx)

	next := State{Status: StatusAnonymous, Path: path}
	if err == nil && user != nil {
		next = State{Status: StatusAuthenticated, User: user, Path: path}
	}

	if !c.state.setIf(gen, next) {
		c.logger.Debug("stale session sync dropped", "path", path)
		return c.state.Snapshot(), err
	}

	if err != nil {
		c.logger.Warn("session sync failed", "path", path, "error", err)
	}
	return next, err
}

// fetchUser returns nil, nil when there is no session.
func (c *Client) fetchUser(ctx context.Context) (*domain.User, error) {
	status, body, err := c.do(ctx, http.MethodGet, PathSession, nil)
	if err != nil {
		return nil, err
	}
	if status >= 500 {
		return nil, &domain.UpstreamError{Status: status, Body: body}
	}
	if status < 200 || status >= 300 || isNull(body) {
		return nil, nil
	}

	// Some identity APIs answer the session check with the user itself.
	var user domain.User
	if err := json.Unmarshal(body, &user); err == nil && user.ID != "" {
		return &user, nil
	}

	status, body, err = c.do(ctx, http.MethodGet, PathMe, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		if status >= 500 {
			return nil, &domain.UpstreamError{Status: status, Body: body}
		}
		return nil, nil
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// Login signs in and stores the returned user.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	return c.authenticate(ctx, PathLogin, creds)
}

// Register creates an account and stores the returned user.
func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	return c.authenticate(ctx, PathRegister, creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds domain.Credentials) (*domain.User, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &domain.UpstreamError{Status: status, Body: body}
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	c.state.set(State{Status: StatusAuthenticated, User: &user, Path: c.state.Snapshot().Path})
	return &user, nil
}

// Logout ends the session. Local state is cleared even when the relay fails.
func (c *Client) Logout(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodPost, PathLogout, nil)

	c.state.set(State{Status: StatusAnonymous, Path: c.state.Snapshot().Path})

	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &domain.UpstreamError{Status: status, Body: body}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: read body: %v", method, path, domain.ErrUpstreamUnavailable, err)
	}
	return resp.StatusCode, body, nil
}

func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
