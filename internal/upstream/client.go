// Package upstream is the HTTP client for the identity API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"authrelay/internal/domain"
	"authrelay/internal/observability"
)

const maxBodyBytes = 1 << 20

// Endpoint paths on the identity API.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
	PathSession  = "/auth/session"
	PathMe       = "/users/me"
)

// Response is a 2xx answer from the identity API.
type Response struct {
	Status     int
	Body       json.RawMessage
	SetCookies []string
}

// Client talks to the identity API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient creates a new identity API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			// Set-Cookie on a 3xx must reach the caller, not be swallowed by a redirect hop.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		tracer: otel.Tracer("authrelay/upstream"),
	}
}

// Login relays credentials to POST /auth/login
func (c *Client) Login(ctx context.Context, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathLogin, "", body)
}

// Register relays a sign-up payload to POST /auth/register
func (c *Client) Register(ctx context.Context, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathRegister, "", body)
}

// Logout ends the session identified by cookieHeader
func (c *Client) Logout(ctx context.Context, cookieHeader string) (*Response, error) {
	return c.do(ctx, http.MethodPost, PathLogout, cookieHeader, nil)
}

// Session checks, and may refresh, the session identified by cookieHeader
func (c *Client) Session(ctx context.Context, cookieHeader string) (*Response, error) {
	return c.do(ctx, http.MethodGet, PathSession, cookieHeader, nil)
}

// Me fetches the current user
func (c *Client) Me(ctx context.Context, cookieHeader string) (*Response, error) {
	return c.do(ctx, http.MethodGet, PathMe, cookieHeader, nil)
}

// UpdateMe patches the current user
func (c *Client) UpdateMe(ctx context.Context, cookieHeader string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPatch, PathMe, cookieHeader, body)
}

// Ping reports whether the identity API answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path, cookieHeader string, body []byte) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "upstream "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}
	reqID := observability.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)
	observability.Propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(path, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	observability.UpstreamRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("%s %s: %w: read body: %v", method, path, domain.ErrUpstreamUnavailable, err)
	}

	setCookies := resp.Header.Values("Set-Cookie")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			span.SetStatus(codes.Error, resp.Status)
		}
		return nil, &domain.UpstreamError{
			Status:     resp.StatusCode,
			Body:       data,
			SetCookies: setCookies,
		}
	}

	return &Response{
		Status:     resp.StatusCode,
		Body:       data,
		SetCookies: setCookies,
	}, nil
}
