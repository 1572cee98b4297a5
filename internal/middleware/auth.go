package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authrelay/internal/authcookie"
	"authrelay/internal/cookie"
	"authrelay/internal/domain"
	"authrelay/internal/observability"
	"authrelay/internal/refresh"
	"authrelay/internal/route"
)

type contextKey string

const AuthDecisionKey contextKey = "auth_decision"

// Guard actions, also used as auth_guard_decisions_total labels.
const (
	ActionSkip            = "skip"
	ActionContinue        = "continue"
	ActionRedirectSignIn  = "redirect_sign_in"
	ActionRedirectLanding = "redirect_landing"

	// ActionRedirectCanonical sends a non-canonical path to its cleaned form before any auth decision.
	ActionRedirectCanonical = "redirect_canonical"
)

// Refresher performs the session refresh round trip.
type Refresher interface {
	Refresh(ctx context.Context, cookieHeader string) refresh.Result
}

// GuardConfig holds the edge guard settings
type GuardConfig struct {
	SignInPath  string
	LandingPath string
	// ScrubOnRefreshFailure removes stale session cookies from the forwarded Cookie header.
	ScrubOnRefreshFailure bool
	// InspectTokenExpiry treats a JWT access token past its exp as absent.
	InspectTokenExpiry bool
	Now                func() time.Time
}

// Outcome is the result of running the guard on one request.
type Outcome struct {
	Class    route.Class
	Action   string
	Location string
	// ForwardCookie is the Cookie header downstream handlers must see.
	ForwardCookie string
	SetCookies    []*http.Cookie
	Auth          domain.AuthDecision
}

// Guard decides, per navigation, whether to continue or redirect.
type Guard struct {
	cfg       GuardConfig
	refresher Refresher
	store     *authcookie.Store
}

// NewGuard creates an edge guard
func NewGuard(cfg GuardConfig, refresher Refresher, store *authcookie.Store) *Guard {
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/sign-in"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/profile"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Guard{cfg: cfg, refresher: refresher, store: store}
}

// Decide runs the guard state machine without writing a response.
func (g *Guard) Decide(r *http.Request) Outcome {
	canonical := route.Canonical(r.URL.Path)
	class := route.Classify(canonical)
	if canonical != r.URL.Path {
		location := canonical
		if r.URL.RawQuery != "" {
			location += "?" + r.URL.RawQuery
		}
		return Outcome{Class: class, Action: ActionRedirectCanonical, Location: location}
	}
	if class == route.Skip {
		return Outcome{Class: class, Action: ActionSkip}
	}

	ctx := r.Context()
	header := strings.Join(r.Header.Values("Cookie"), "; ")
	out := Outcome{Class: class, ForwardCookie: header}

	access, _ := cookie.Lookup(header, domain.AccessTokenCookie)
	refreshToken, _ := cookie.Lookup(header, domain.RefreshTokenCookie)
	out.Auth.HasAccessToken = access != "" && g.accessTokenLive(access)
	out.Auth.HasRefreshToken = refreshToken != ""

	if !out.Auth.HasAccessToken && out.Auth.HasRefreshToken {
		res := g.safeRefresh(refresh.WithForwarded(ctx, g.forwardedFor(r)), header)
		out.Auth.RefreshedCookies = res.NewCookies

		if res.OK {
			out.Auth.HasAccessToken = true
			out.Auth.Refreshed = true
			out.ForwardCookie = cookie.MergeHeader(header, res.NewCookies)
			out.SetCookies = g.store.Store(r, res.NewCookies)
		} else {
			if !res.Transient {
				out.SetCookies = g.store.Store(r, res.NewCookies)
			}
			if g.cfg.ScrubOnRefreshFailure {
				out.ForwardCookie = cookie.RemoveNames(header, domain.SessionCookieNames...)
			}
		}
	}

	switch {
	case !out.Auth.HasAccessToken && class == route.Protected:
		out.Action = ActionRedirectSignIn
		out.Location = g.cfg.SignInPath + "?" + url.Values{"redirect": {r.URL.RequestURI()}}.Encode()
	case out.Auth.HasAccessToken && class == route.PublicOnly:
		out.Action = ActionRedirectLanding
		target, err := SanitizeRedirect(r.URL.Query().Get("redirect"))
		if err != nil {
			target = g.cfg.LandingPath
		}
		out.Location = target
	default:
		out.Action = ActionContinue
	}

	return out
}

// safeRefresh turns a panicking refresher into a transient failure.
func (g *Guard) safeRefresh(ctx context.Context, header string) (res refresh.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			observability.FromContext(ctx).Error("session refresh panicked", "panic", rec)
			res = refresh.Result{Transient: true, Outcome: refresh.OutcomeTransportError, Err: fmt.Errorf("refresh panicked: %v", rec)}
		}
	}()
	return g.refresher.Refresh(ctx, header)
}

// forwardedFor describes the browser-facing origin so the session endpoint
// computes the same cookie attributes the guard will apply.
func (g *Guard) forwardedFor(r *http.Request) refresh.Forwarded {
	f := refresh.Forwarded{Proto: "http", Host: r.Header.Get("X-Forwarded-Host")}
	if g.store.ComputeSecure(r) {
		f.Proto = "https"
	}
	if f.Host == "" {
		f.Host = r.Host
	}
	return f
}

// Middleware returns a chi-compatible middleware running the guard before next.
func (g *Guard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := g.Decide(r)
			observability.GuardDecisionsTotal.WithLabelValues(out.Class.String(), out.Action).Inc()

			if out.Action == ActionSkip {
				next.ServeHTTP(w, r)
				return
			}

			ctx := observability.WithRouteClass(r.Context(), out.Class.String())
			observability.FromContext(ctx).Debug("edge guard decision",
				"path", r.URL.Path,
				"action", out.Action,
				"has_access", out.Auth.HasAccessToken,
				"refreshed", out.Auth.Refreshed,
			)

			w.Header().Set("Cache-Control", "no-store")
			authcookie.Apply(w, out.SetCookies)

			if out.Location != "" {
				status := http.StatusTemporaryRedirect
				if out.Action == ActionRedirectCanonical {
					status = http.StatusPermanentRedirect
				}
				http.Redirect(w, r, out.Location, status)
				return
			}

			r = r.Clone(WithAuthDecision(ctx, out.Auth))
			r.Header.Del("Cookie")
			if out.ForwardCookie != "" {
				r.Header.Set("Cookie", out.ForwardCookie)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SanitizeRedirect accepts only same-origin absolute paths that do not point back at a public-only page.
func SanitizeRedirect(target string) (string, error) {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "", domain.ErrInvalidRedirect
	}
	if strings.ContainsAny(target, "\r\n\t") {
		return "", domain.ErrInvalidRedirect
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", domain.ErrInvalidRedirect
	}
	if route.Classify(route.Canonical(u.Path)) == route.PublicOnly {
		return "", domain.ErrInvalidRedirect
	}
	return target, nil
}

func GetAuthDecision(ctx context.Context) (domain.AuthDecision, bool) {
	decision, ok := ctx.Value(AuthDecisionKey).(domain.AuthDecision)
	return decision, ok
}

func WithAuthDecision(ctx context.Context, decision domain.AuthDecision) context.Context {
	return context.WithValue(ctx, AuthDecisionKey, decision)
}
