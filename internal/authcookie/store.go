package authcookie

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"authrelay/internal/cookie"
	"authrelay/internal/domain"
	"authrelay/internal/observability"
)

// DefaultMaxAge applies when upstream sends neither Max-Age nor Expires.
const DefaultMaxAge = 7 * 24 * time.Hour

// Attributes are the policy-decided attributes for one request.
type Attributes struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// Store turns upstream Set-Cookie lines into policy-correct session cookies.
type Store struct {
	policy         Policy
	explicitDomain string
	defaultMaxAge  time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDomain sets an explicit cookie domain that wins over the strategy.
func WithDomain(d string) Option {
	return func(s *Store) { s.explicitDomain = strings.TrimPrefix(d, ".") }
}

// WithDefaultMaxAge overrides DefaultMaxAge.
func WithDefaultMaxAge(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultMaxAge = d
		}
	}
}

// WithLogger sets the logger used for policy conflict warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store for the given policy.
func NewStore(policy Policy, opts ...Option) *Store {
	s := &Store{
		policy:        policy,
		defaultMaxAge: DefaultMaxAge,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeSecure reports whether the effective scheme is https. The first
// X-Forwarded-Proto value wins over the connection's own TLS state.
func (s *Store) ComputeSecure(r *http.Request) bool {
	if s.policy.Secure == SecureAlways {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		return strings.EqualFold(strings.TrimSpace(first), "https")
	}
	if r.TLS != nil {
		return true
	}
	return r.URL != nil && r.URL.Scheme == "https"
}

// ComputeSameSite returns the SameSite attribute for a secure decision.
func (s *Store) ComputeSameSite(secure bool) http.SameSite {
	return s.policy.sameSite(secure)
}

// ComputeDomain returns the Domain attribute, or "" for a host-only cookie.
func (s *Store) ComputeDomain(r *http.Request) string {
	if s.explicitDomain != "" {
		return s.explicitDomain
	}
	if s.policy.Domain == DomainHostOnly {
		return ""
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	host, _, _ = strings.Cut(host, ",")
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[]")
	if isLocalHost(host) {
		return ""
	}
	return host
}

func isLocalHost(host string) bool {
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

// Resolve computes the policy attributes for a request.
func (s *Store) Resolve(r *http.Request) Attributes {
	secure := s.ComputeSecure(r)
	return Attributes{
		Secure:   secure,
		SameSite: s.ComputeSameSite(secure),
		Domain:   s.ComputeDomain(r),
	}
}

// Store parses the upstream Set-Cookie lines and returns the recognized
// session cookies with policy attributes. Malformed or unrelated cookies are
// skipped. Nothing is written; the caller applies the result.
func (s *Store) Store(r *http.Request, rawSetCookie []string) []*http.Cookie {
	attrs := s.Resolve(r)

	var out []*http.Cookie
	for _, up := range cookie.ParseAll(rawSetCookie) {
		if !isSessionCookie(up.Name) {
			continue
		}
		s.flagConflicts(r, up, attrs)
		out = append(out, &http.Cookie{
			Name:     up.Name,
			Value:    up.Value,
			Path:     "/",
			Domain:   attrs.Domain,
			MaxAge:   s.maxAge(up),
			HttpOnly: true,
			Secure:   attrs.Secure,
			SameSite: attrs.SameSite,
		})
	}
	return out
}

// maxAge resolves the lifetime in http.Cookie terms (-1 deletes). Max-Age
// wins over Expires; neither falls back to the default.
func (s *Store) maxAge(up *http.Cookie) int {
	switch {
	case up.Value == "" || up.MaxAge < 0:
		return -1
	case up.MaxAge > 0:
		return up.MaxAge
	case !up.Expires.IsZero():
		secs := int(up.Expires.Sub(s.now()).Seconds())
		if secs <= 0 {
			return -1
		}
		return secs
	default:
		return int(s.defaultMaxAge.Seconds())
	}
}

// flagConflicts reports upstream attributes that the deployment policy overrides.
func (s *Store) flagConflicts(r *http.Request, up *http.Cookie, attrs Attributes) {
	conflict := func(attribute, upstream, policy string) {
		observability.CookiePolicyConflicts.WithLabelValues(attribute).Inc()
		observability.FromContext(r.Context()).Warn("upstream cookie attribute overridden by policy",
			slog.String("cookie", up.Name),
			slog.String("attribute", attribute),
			slog.String("upstream", upstream),
			slog.String("policy", policy))
	}

	if upstreamSameSite(up) && up.SameSite != attrs.SameSite {
		conflict("samesite", sameSiteName(up.SameSite), sameSiteName(attrs.SameSite))
	}
	if up.Secure && !attrs.Secure {
		conflict("secure", "true", "false")
	}
	if up.Domain != "" && !strings.EqualFold(strings.TrimPrefix(up.Domain, "."), attrs.Domain) {
		conflict("domain", up.Domain, attrs.Domain)
	}
	if up.Path != "" && up.Path != "/" {
		conflict("path", up.Path, "/")
	}
}

// upstreamSameSite reports whether upstream named a SameSite value at all.
// http.ParseSetCookie leaves the zero value when the attribute is missing.
func upstreamSameSite(up *http.Cookie) bool {
	return up.SameSite != 0 && up.SameSite != http.SameSiteDefaultMode
}

func sameSiteName(m http.SameSite) string {
	switch m {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return "default"
	}
}

// ClearCookies returns deletion cookies for the session pair, built with the
// same attributes Store would use for this request.
func (s *Store) ClearCookies(r *http.Request) []*http.Cookie {
	attrs := s.Resolve(r)
	out := make([]*http.Cookie, 0, len(domain.SessionCookieNames))
	for _, name := range domain.SessionCookieNames {
		out = append(out, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   attrs.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   attrs.Secure,
			SameSite: attrs.SameSite,
		})
	}
	return out
}

// Clear writes deletion cookies for the session pair to w.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	Apply(w, s.ClearCookies(r))
}

// Apply appends cookies to the response as Set-Cookie headers.
func Apply(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}

func isSessionCookie(name string) bool {
	return name == domain.AccessTokenCookie || name == domain.RefreshTokenCookie
}
