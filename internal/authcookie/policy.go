// Package authcookie decides the final attributes of the accessToken and
// refreshToken cookies for the current deployment and writes or clears them.
package authcookie

import (
	"fmt"
	"net/http"
)

// Mode names a deployment topology.
type Mode string

const (
	// ModeAuto follows the transport: Secure on https, SameSite=None when Secure, else Lax.
	ModeAuto Mode = "auto"
	// ModeSameSite serves the SPA and the relay from one site.
	ModeSameSite Mode = "same-site"
	// ModeCrossSite lets cookies ride cross-origin fetches; requires Secure.
	ModeCrossSite Mode = "cross-site"
)

// SecureRule decides the Secure flag.
type SecureRule int

const (
	SecureFromRequest SecureRule = iota
	SecureAlways
)

// SameSiteRule decides the SameSite attribute.
type SameSiteRule int

const (
	SameSiteBySecure SameSiteRule = iota
	SameSiteLax
	SameSiteNone
)

// DomainStrategy decides the Domain attribute when none is configured.
type DomainStrategy int

const (
	// DomainFromRequest scopes to the request host, except localhost and loopback.
	DomainFromRequest DomainStrategy = iota
	// DomainHostOnly never sets Domain.
	DomainHostOnly
)

// Policy is the resolved cookie policy. It is computed once at startup and
// consumed by every writer and clearer so set and delete attributes match.
type Policy struct {
	Secure   SecureRule
	SameSite SameSiteRule
	Domain   DomainStrategy
}

// ResolveCookiePolicy maps a deployment mode to its cookie policy.
func ResolveCookiePolicy(mode Mode) (Policy, error) {
	switch mode {
	case ModeAuto, "":
		return Policy{Secure: SecureFromRequest, SameSite: SameSiteBySecure, Domain: DomainFromRequest}, nil
	case ModeSameSite:
		return Policy{Secure: SecureFromRequest, SameSite: SameSiteLax, Domain: DomainFromRequest}, nil
	case ModeCrossSite:
		return Policy{Secure: SecureAlways, SameSite: SameSiteNone, Domain: DomainFromRequest}, nil
	default:
		return Policy{}, fmt.Errorf("unknown cookie mode %q", mode)
	}
}

// ParseDomainStrategy maps the configuration value to a DomainStrategy.
func ParseDomainStrategy(s string) (DomainStrategy, error) {
	switch s {
	case "request", "":
		return DomainFromRequest, nil
	case "host-only":
		return DomainHostOnly, nil
	default:
		return 0, fmt.Errorf("unknown domain strategy %q", s)
	}
}

// sameSite returns the SameSite value for a secure decision. None without
// Secure is rejected by browsers, so both None rules degrade to Lax.
func (p Policy) sameSite(secure bool) http.SameSite {
	if p.SameSite == SameSiteLax || !secure {
		return http.SameSiteLaxMode
	}
	return http.SameSiteNoneMode
}
