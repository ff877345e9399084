package gate

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/temaribet/lms/pkg/errors"
	"github.com/temaribet/lms/pkg/httputil"

	"github.com/temaribet/lms/internal/auth"
)

type contextKey string

// externalToken finds the mini-app platform token on the request: the mirror
// cookie first, then a bearer Authorization header, then the token query
// param the mini-app appends on first navigation.
func externalToken(r *http.Request) string {
	if v := cookieValue(r, ExternalCookie); v != "" {
		return v
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

const claimsKey contextKey = "gate_claims"

// ClaimsFromContext returns the session claims the gate attached to the
// request, if any.
func ClaimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.SessionClaims)
	return claims, ok
}

// Middleware runs the gate in front of every route. Cookie side effects are
// applied before the terminal action so a redirect and its cleared cookie
// travel in the same response.
func (g *Gate) Middleware(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Evaluate(r.Context(), Request{
				Path:          r.URL.Path,
				SessionToken:  cookieValue(r, SessionCookie),
				ExternalToken: externalToken(r),
			})

			if decision.SetSession != "" {
				SetSessionCookie(w, decision.SetSession, ttl)
			}
			if decision.SetExternal != "" {
				SetExternalCookie(w, decision.SetExternal, ttl)
			}
			if decision.ClearSession {
				ClearSessionCookie(w)
			}
			if decision.ClearExternal {
				ClearExternalCookie(w)
			}

			switch decision.Action {
			case ActionRedirect:
				http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
				return
			case ActionUnauthorized:
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), g.logger)
				return
			}

			if decision.Claims != nil {
				ctx := context.WithValue(r.Context(), claimsKey, decision.Claims)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
