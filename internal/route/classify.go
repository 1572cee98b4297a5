// Package route labels request paths for the edge guard.
package route

import (
	"path"
	"strings"
)

// Class is the auth treatment a path receives.
type Class int

const (
	// Neutral paths get no auth decision.
	Neutral Class = iota
	// Skip paths bypass all auth logic: assets, the internal API, the root page.
	Skip
	// Protected paths require an access token.
	Protected
	// PublicOnly paths are forbidden once authenticated.
	PublicOnly
)

func (c Class) String() string {
	switch c {
	case Skip:
		return "skip"
	case Protected:
		return "protected"
	case PublicOnly:
		return "public_only"
	default:
		return "neutral"
	}
}

var (
	skipPrefixes = []string{"/_next", "/api", "/assets"}
	skipExact    = map[string]bool{
		"/":            true,
		"/favicon.ico": true,
		"/sitemap.xml": true,
		"/robots.txt":  true,
	}
	protectedPrefixes = []string{"/notes", "/profile"}
	publicOnly        = map[string]bool{
		"/sign-in": true,
		"/sign-up": true,
	}
)

// Classify maps a request path to exactly one Class. It is total and pure.
func Classify(path string) Class {
	if skipExact[path] {
		return Skip
	}
	for _, p := range skipPrefixes {
		if strings.HasPrefix(path, p) {
			return Skip
		}
	}
	for _, p := range protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return Protected
		}
	}
	if publicOnly[path] {
		return PublicOnly
	}
	return Neutral
}

// Canonical cleans p the way a frontend router resolves it: dot segments are
// applied, repeated slashes collapse, and a trailing slash is kept.
func Canonical(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean("/" + p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean
}
