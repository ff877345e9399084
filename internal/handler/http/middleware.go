package http

import (
	"net/http"
	"strings"

	apperrors "github.com/temaribet/lms/pkg/errors"
	"github.com/temaribet/lms/pkg/httputil"

	"github.com/temaribet/lms/internal/gate"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole restricts a route to the named roles. It runs after the gate,
// so a missing session never reaches here on API routes; pages answer with
// a redirect to the visitor's own landing page instead of a bare 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := gate.ClaimsFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if !allowed[claims.Role] {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					httputil.WriteError(w, r, apperrors.Forbidden("insufficient role"), nil)
					return
				}
				http.Redirect(w, r, gate.LandingPath(claims.Role), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
