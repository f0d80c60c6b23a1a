package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie carrying the bearer token.
const CookieName = "token"

// SessionTransport delivers tokens to clients and extracts them from
// requests. The cookie is the primary channel; the Authorization header is
// the fallback for clients that cannot hold cookies.
type SessionTransport struct {
	secure   bool
	sameSite http.SameSite
	maxAge   time.Duration
}

// NewSessionTransport configures cookie attributes. secure should be true
// whenever the service is fronted by TLS.
func NewSessionTransport(secure bool, sameSite http.SameSite, maxAge time.Duration) *SessionTransport {
	return &SessionTransport{secure: secure, sameSite: sameSite, maxAge: maxAge}
}

// Attach sets the HTTP-only session cookie on the response.
func (s *SessionTransport) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
		MaxAge:   int(s.maxAge.Seconds()),
	})
}

// Extract pulls the token from the cookie, falling back to a Bearer header.
func (s *SessionTransport) Extract(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return token, true
	}
	return "", false
}

// Clear overwrites the session cookie with an empty value and a past expiry.
func (s *SessionTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
