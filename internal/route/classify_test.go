package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Class
	}{
		{"/", Skip},
		{"/_next/static/chunk.js", Skip},
		{"/_nextdata", Skip},
		{"/api/auth/session", Skip},
		{"/api", Skip},
		{"/assets/logo.svg", Skip},
		{"/favicon.ico", Skip},
		{"/sitemap.xml", Skip},
		{"/robots.txt", Skip},

		{"/notes", Protected},
		{"/notes/123", Protected},
		{"/notes/filter/all", Protected},
		{"/profile", Protected},
		{"/profile/edit", Protected},

		{"/sign-in", PublicOnly},
		{"/sign-up", PublicOnly},

		{"/notesy", Neutral},
		{"/profiles", Neutral},
		{"/sign-in/extra", Neutral},
		{"/sign-upx", Neutral},
		{"/about", Neutral},
		{"", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	paths := []string{"/", "/notes/1", "/sign-in", "/x", "/api/x", "//notes", "/NOTES"}
	for _, p := range paths {
		first := Classify(p)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(p), p)
		}
		assert.Contains(t, []Class{Skip, Protected, PublicOnly, Neutral}, first)
	}
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "protected", Protected.String())
	assert.Equal(t, "public_only", PublicOnly.String())
	assert.Equal(t, "neutral", Neutral.String())
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/notes/123", "/notes/123"},
		{"//notes/123", "/notes/123"},
		{"/notes//123", "/notes/123"},
		{"/_next/../notes/123", "/notes/123"},
		{"/assets/../profile", "/profile"},
		{"/./profile", "/profile"},
		{"/notes/", "/notes/"},
		{"/../../etc", "/etc"},
		{"notes", "/notes"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Canonical(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Canonical(got))
		})
	}
}
