package middleware

import (
	"github.com/golang-jwt/jwt/v5"
)

// accessTokenLive reports whether the access token may still be used.
// The signature is never checked; only upstream can verify its own tokens.
// Tokens that are not JWTs, or carry no exp, count by presence alone.
func (g *Guard) accessTokenLive(token string) bool {
	if !g.cfg.InspectTokenExpiry {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return g.cfg.Now().Before(exp.Time)
}
