package jwtmw

import (
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the token for browser clients.
const CookieName = "jwt"

const bearerPrefix = "Bearer "

// ExtractToken returns the token from the Authorization header, falling back
// to the jwt cookie. The header wins when both are present.
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		if tok := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix)); tok != "" {
			return tok
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
