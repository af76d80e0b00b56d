package auth

import (
	"net/http"
	"time"
)

// RefreshCookieName is the only transport for refresh tokens. The value never
// appears in a request or response body.
const RefreshCookieName = "refresh_token"

// NewRefreshCookie builds the HTTP-only cookie carrying the refresh token.
func NewRefreshCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredRefreshCookie returns a cookie that instructs the browser to drop
// the refresh token immediately.
func ExpiredRefreshCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ReadRefreshCookie extracts the refresh token from the request cookie jar.
func ReadRefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
