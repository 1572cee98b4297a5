package domain

// Names of the two session cookies. They are always rotated and cleared as a pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SessionCookieNames lists the pair in the order they are written.
var SessionCookieNames = []string{AccessTokenCookie, RefreshTokenCookie}

// AuthDecision is the per-request authentication state computed by the edge
// guard. It is never cached across requests.
type AuthDecision struct {
	HasAccessToken   bool
	HasRefreshToken  bool
	Refreshed        bool
	RefreshedCookies []string
}
