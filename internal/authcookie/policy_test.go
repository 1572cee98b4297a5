package authcookie

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCookiePolicy(t *testing.T) {
	tests := []struct {
		mode Mode
		want Policy
	}{
		{ModeAuto, Policy{Secure: SecureFromRequest, SameSite: SameSiteBySecure, Domain: DomainFromRequest}},
		{"", Policy{Secure: SecureFromRequest, SameSite: SameSiteBySecure, Domain: DomainFromRequest}},
		{ModeSameSite, Policy{Secure: SecureFromRequest, SameSite: SameSiteLax, Domain: DomainFromRequest}},
		{ModeCrossSite, Policy{Secure: SecureAlways, SameSite: SameSiteNone, Domain: DomainFromRequest}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got, err := ResolveCookiePolicy(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCookiePolicy_Unknown(t *testing.T) {
	_, err := ResolveCookiePolicy("strict")
	assert.Error(t, err)
}

func TestParseDomainStrategy(t *testing.T) {
	s, err := ParseDomainStrategy("request")
	require.NoError(t, err)
	assert.Equal(t, DomainFromRequest, s)

	s, err = ParseDomainStrategy("host-only")
	require.NoError(t, err)
	assert.Equal(t, DomainHostOnly, s)

	_, err = ParseDomainStrategy("parent")
	assert.Error(t, err)
}

// Every mode and transport combination yields SameSite=None only together with Secure.
func TestPolicy_SameSiteNeverNoneWithoutSecure(t *testing.T) {
	for _, mode := range []Mode{ModeAuto, ModeSameSite, ModeCrossSite} {
		p, err := ResolveCookiePolicy(mode)
		require.NoError(t, err)
		for _, secure := range []bool{true, false} {
			got := p.sameSite(secure)
			if got == http.SameSiteNoneMode {
				assert.True(t, secure, "mode %s produced None without Secure", mode)
			}
		}
	}
}

func TestPolicy_SameSiteTable(t *testing.T) {
	auto, _ := ResolveCookiePolicy(ModeAuto)
	same, _ := ResolveCookiePolicy(ModeSameSite)
	cross, _ := ResolveCookiePolicy(ModeCrossSite)

	assert.Equal(t, http.SameSiteNoneMode, auto.sameSite(true))
	assert.Equal(t, http.SameSiteLaxMode, auto.sameSite(false))
	assert.Equal(t, http.SameSiteLaxMode, same.sameSite(true))
	assert.Equal(t, http.SameSiteLaxMode, same.sameSite(false))
	assert.Equal(t, http.SameSiteNoneMode, cross.sameSite(true))
}
