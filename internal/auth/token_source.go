package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie the login flow stores the JWT in.
const CookieName = "jwt"

// TokenFromRequest extracts the bearer credential from the request, checking
// sources in a fixed priority order: the jwt cookie, the Authorization
// header, then the token query parameter (the connect-time auth payload used
// by websocket clients). The first present source wins; sources are never
// merged. Returns "" when no source carries a credential.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	return r.URL.Query().Get("token")
}
