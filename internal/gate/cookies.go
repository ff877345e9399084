package gate

import (
	"net/http"
	"time"
)

// Cookie names. SessionCookie carries the signed session token;
// ExternalCookie mirrors the mini-app platform token used for auto-login.
const (
	SessionCookie  = "session"
	ExternalCookie = "miniapp-auth-token"
)

// SetSessionCookie writes the session token as an httpOnly cookie scoped to
// the whole site. Cookie lifetime matches token lifetime.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetExternalCookie mirrors the mini-app token so later visits can
// auto-login without re-presenting it.
func SetExternalCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     ExternalCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearExternalCookie expires the mini-app token cookie. Done when the
// provider rejects the token so every page load does not re-verify a dead
// token.
func ClearExternalCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ExternalCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieValue returns the named cookie's value or empty string.
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
