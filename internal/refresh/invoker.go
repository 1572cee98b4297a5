// Package refresh calls the internal session-check endpoint on behalf of the edge guard.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"authrelay/internal/observability"
)

const maxBodyBytes = 1 << 20

// Outcome labels for auth_refresh_attempts_total.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeEmpty          = "empty"
	OutcomeServerError    = "server_error"
	OutcomeTransportError = "transport_error"
)

// Result is the interpreted answer of one refresh round trip.
type Result struct {
	OK bool
	// NewCookies holds raw Set-Cookie values. Empty for transient failures.
	NewCookies []string
	Body       json.RawMessage
	Status     int
	// Transient marks 5xx and transport failures; cookies must be left alone.
	Transient bool
	Outcome   string
	Err       error
}

// Forwarded is the scheme and host the browser used for the guarded navigation.
type Forwarded struct {
	Proto string
	Host  string
}

type forwardedKey struct{}

// WithForwarded attaches f to ctx; Refresh sends it as X-Forwarded-Proto and X-Forwarded-Host.
func WithForwarded(ctx context.Context, f Forwarded) context.Context {
	return context.WithValue(ctx, forwardedKey{}, f)
}

// ForwardedFrom returns the origin attached by WithForwarded.
func ForwardedFrom(ctx context.Context) (Forwarded, bool) {
	f, ok := ctx.Value(forwardedKey{}).(Forwarded)
	return f, ok
}

// Invoker performs the session refresh call.
type Invoker struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(inv *Invoker) { inv.httpClient = c }
}

// NewInvoker creates an invoker for the session endpoint at endpoint.
// Every call is bounded by timeout.
func NewInvoker(endpoint string, timeout time.Duration, opts ...Option) *Invoker {
	inv := &Invoker{
		endpoint: endpoint,
		timeout:  timeout,
		httpClient: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		tracer: otel.Tracer("authrelay/refresh"),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Refresh forwards cookieHeader verbatim to the session endpoint and interprets the answer.
// It never returns an error or panics; failures are reported through Result.
func (inv *Invoker) Refresh(ctx context.Context, cookieHeader string) (res Result) {
	start := time.Now()
	ctx, span := inv.tracer.Start(ctx, "session refresh", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Transient: true, Outcome: OutcomeTransportError, Err: fmt.Errorf("refresh panicked: %v", rec)}
		}
		observability.RefreshDuration.Observe(time.Since(start).Seconds())
		observability.RefreshAttemptsTotal.WithLabelValues(res.Outcome).Inc()
		span.SetAttributes(attribute.String("auth.refresh.outcome", res.Outcome), attribute.Bool("auth.refresh.ok", res.OK))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Outcome)
		}
		span.End()
		inv.log(ctx, res)
	}()

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.endpoint, nil)
	if err != nil {
		return Result{Transient: true, Outcome: OutcomeTransportError, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", cookieHeader)
	if f, ok := ForwardedFrom(ctx); ok {
		if f.Proto != "" {
			req.Header.Set("X-Forwarded-Proto", f.Proto)
		}
		if f.Host != "" {
			req.Header.Set("X-Forwarded-Host", f.Host)
		}
	}
	if reqID := observability.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	observability.Propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := inv.httpClient.Do(req)
	if err != nil {
		return Result{Transient: true, Outcome: OutcomeTransportError, Err: fmt.Errorf("session endpoint: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Status: resp.StatusCode, Transient: true, Outcome: OutcomeTransportError, Err: fmt.Errorf("read session body: %w", err)}
	}

	return interpret(resp.StatusCode, body, resp.Header.Values("Set-Cookie"))
}

func interpret(status int, body []byte, setCookies []string) Result {
	switch {
	case status >= 500:
		return Result{
			Status:    status,
			Transient: true,
			Outcome:   OutcomeServerError,
			Err:       fmt.Errorf("session endpoint returned %d", status),
		}
	case status >= 200 && status < 300:
		if truthy(body) {
			return Result{OK: true, Status: status, Body: body, NewCookies: setCookies, Outcome: OutcomeOK}
		}
		return Result{Status: status, NewCookies: setCookies, Outcome: OutcomeEmpty}
	default:
		return Result{Status: status, NewCookies: setCookies, Outcome: OutcomeRejected}
	}
}

// truthy reports whether body is a JSON value that counts as true: any object or array,
// a non-empty string, a non-zero number, or true.
func truthy(body []byte) bool {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return false
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func (inv *Invoker) log(ctx context.Context, res Result) {
	logger := observability.FromContext(ctx)
	switch res.Outcome {
	case OutcomeOK, OutcomeRejected, OutcomeEmpty:
		logger.Debug("session refresh", "outcome", res.Outcome, "status", res.Status, "cookies", len(res.NewCookies))
	default:
		logger.Error("session refresh failed", "outcome", res.Outcome, "status", res.Status, "error", res.Err)
	}
}
