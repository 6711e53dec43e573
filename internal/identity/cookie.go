package identity

import (
	"net/http"
	"strings"
	"time"
)

// Cookies reads and writes the session cookie carrying the access token.
type Cookies struct {
	Name   string
	Secure bool
}

// Token returns the access token from the cookie, falling back to an
// "Authorization: Bearer" header for API clients.
func (c Cookies) Token(r *http.Request) string {
	if ck, err := r.Cookie(c.Name); err == nil && ck.Value != "" {
		return ck.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Set writes s as an HTTP-only cookie expiring with the token.
func (c Cookies) Set(w http.ResponseWriter, s Session) {
	ck := &http.Cookie{
		Name:     c.Name,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		ck.Expires = s.ExpiresAt
		ck.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, ck)
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
