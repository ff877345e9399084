package http

import (
	"fmt"
	"net/http"

	"github.com/temaribet/lms/internal/gate"
)

// PageHandler serves the server-rendered entry and landing pages. Rendering
// is deliberately minimal; the pages exist so the gate has real routes to
// protect and redirect between.
type PageHandler struct{}

// NewPageHandler creates a page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

// Home handles GET /. The gate forwards authenticated visitors to their
// landing page before this runs, so this only ever renders for guests.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	writePage(w, "LMS", `<h1>Welcome</h1><p><a href="/login">Log in</a> or <a href="/register">register</a>.</p>`)
}

// Login handles GET /login.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	writePage(w, "Log in", `<h1>Log in</h1><form method="post" action="/api/v1/auth/login"></form>`)
}

// Register handles GET /register.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	writePage(w, "Register", `<h1>Register</h1><form method="post" action="/api/v1/auth/register"></form>`)
}

// Dashboard handles GET /dashboard, the staff landing page.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := gate.ClaimsFromContext(r.Context())
	writePage(w, "Dashboard", fmt.Sprintf("<h1>Dashboard</h1><p>Signed in as %s.</p>", claims.Name))
}

// Admin handles GET /admin, the landing page for admins and any role
// without a dedicated home.
func (h *PageHandler) Admin(w http.ResponseWriter, r *http.Request) {
	claims, _ := gate.ClaimsFromContext(r.Context())
	writePage(w, "Admin", fmt.Sprintf("<h1>Admin</h1><p>Signed in as %s (%s).</p>", claims.Name, claims.Role))
}

// SuperAdmin handles GET /super-admin.
func (h *PageHandler) SuperAdmin(w http.ResponseWriter, r *http.Request) {
	claims, _ := gate.ClaimsFromContext(r.Context())
	writePage(w, "Super Admin", fmt.Sprintf("<h1>Super Admin</h1><p>Signed in as %s.</p>", claims.Name))
}
