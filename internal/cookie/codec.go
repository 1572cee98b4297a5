// Package cookie converts between Set-Cookie wire strings, structured cookies and
// the flattened Cookie request header.
package cookie

import (
	"net/http"
	"strings"
)

// ParseSetCookie parses one Set-Cookie line. Attribute keys are matched
// case-insensitively. Malformed input yields (nil, false) and never panics,
// since upstream cookie strings are untrusted.
func ParseSetCookie(raw string) (*http.Cookie, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	c, err := http.ParseSetCookie(raw)
	if err != nil || c.Name == "" {
		return nil, false
	}
	return c, true
}

// ParseAll parses every line, skipping the malformed ones. Lines folded into a
// single comma-joined value are split first.
func ParseAll(lines []string) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(lines))
	for _, line := range lines {
		for _, raw := range SplitSetCookie(line) {
			if c, ok := ParseSetCookie(raw); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// SplitSetCookie splits a folded Set-Cookie value ("a=1; Path=/, b=2") into
// its individual cookies. A comma only starts a new cookie when the text after
// it looks like name=value, so Expires dates stay intact.
func SplitSetCookie(folded string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(folded); i++ {
		if folded[i] != ',' {
			continue
		}
		if startsPair(folded[i+1:]) {
			if p := strings.TrimSpace(folded[start:i]); p != "" {
				parts = append(parts, p)
			}
			start = i + 1
		}
	}
	if p := strings.TrimSpace(folded[start:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// startsPair reports whether s begins with a cookie name followed by '='.
func startsPair(s string) bool {
	s = strings.TrimLeft(s, " \t")
	eq := strings.IndexByte(s, '=')
	if eq <= 0 {
		return false
	}
	semi := strings.IndexByte(s, ';')
	if semi >= 0 && semi < eq {
		return false
	}
	return isToken(s[:eq])
}

func isToken(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`()<>@,;:\"/[]?={}`, c) >= 0 {
			return false
		}
	}
	return true
}

// pairs is an insertion-ordered name→value map.
type pairs struct {
	names  []string
	values map[string]string
}

func newPairs() *pairs {
	return &pairs{values: make(map[string]string)}
}

// set registers "name=value". Entries without '=' or without a name are ignored.
func (p *pairs) set(pair string) {
	name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return
	}
	if _, seen := p.values[name]; !seen {
		p.names = append(p.names, name)
	}
	p.values[name] = value
}

func (p *pairs) drop(name string) {
	if _, ok := p.values[name]; !ok {
		return
	}
	delete(p.values, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			return
		}
	}
}

func (p *pairs) String() string {
	out := make([]string, 0, len(p.names))
	for _, n := range p.names {
		out = append(out, n+"="+p.values[n])
	}
	return strings.Join(out, "; ")
}

func parseHeader(header string) *pairs {
	p := newPairs()
	for _, part := range strings.Split(header, ";") {
		p.set(part)
	}
	return p
}

// MergeHeader overlays the name=value pair of each incoming Set-Cookie line on
// the existing Cookie header. Attributes are ignored; the last write for a name
// wins and first-seen order is kept. Merging the same lines twice is a no-op.
func MergeHeader(existing string, incoming []string) string {
	if len(incoming) == 0 {
		return existing
	}
	p := parseHeader(existing)
	for _, line := range incoming {
		for _, raw := range SplitSetCookie(line) {
			pair, _, _ := strings.Cut(raw, ";")
			p.set(pair)
		}
	}
	return p.String()
}

// RemoveNames strips the named pairs from a Cookie header.
func RemoveNames(header string, names ...string) string {
	p := parseHeader(header)
	for _, n := range names {
		p.drop(n)
	}
	return p.String()
}

// Lookup returns the value of name in a Cookie header.
func Lookup(header, name string) (string, bool) {
	p := parseHeader(header)
	v, ok := p.values[name]
	return v, ok
}
