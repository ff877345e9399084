// Package gate is the request gate: every incoming request passes through a
// fixed-order decision that ends in exactly one of allow, redirect, or
// unauthorized. Pages and API calls share the same flow; they differ only in
// how a missing or dead session is answered.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/temaribet/lms/internal/auth"
	"github.com/temaribet/lms/internal/domain"
)

// Action is the terminal outcome of a gate evaluation.
type Action int

const (
	// ActionAllow lets the request through to its handler.
	ActionAllow Action = iota
	// ActionRedirect sends the browser elsewhere.
	ActionRedirect
	// ActionUnauthorized answers an API call with 401.
	ActionUnauthorized
)

// Decision is everything the HTTP layer needs to act on a gate evaluation.
type Decision struct {
	Action     Action
	RedirectTo string

	// Claims of the validated or freshly issued session, set on allow and
	// on role redirects.
	Claims *auth.SessionClaims

	// SetSession carries a freshly issued session token to be written as a
	// cookie before acting.
	SetSession string

	// SetExternal mirrors the external token into its cookie after a
	// successful auto-login, so a token that arrived via header or query
	// param survives into later page loads.
	SetExternal string

	// ClearSession and ClearExternal expire the respective cookies.
	ClearSession  bool
	ClearExternal bool
}

// Request is the gate's view of an incoming request.
type Request struct {
	Path          string
	SessionToken  string
	ExternalToken string
}

// SessionValidator validates a session token end to end, including the
// revocation check.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*auth.SessionClaims, error)
}

// AutoLogin converts an external platform token into a local session.
type AutoLogin interface {
	TryAutoLogin(ctx context.Context, externalToken string) (*domain.User, string, error)
}

// Entry pages. A visitor with a live session who lands on one of these is
// forwarded to their role's home instead.
var entryPages = map[string]bool{
	"/":         true,
	"/login":    true,
	"/register": true,
}

// publicPrefixes never require a session.
var publicPrefixes = []string{
	"/static/",
	"/assets/",
}

// publicPaths never require a session.
var publicPaths = map[string]bool{
	"/health":               true,
	"/health/live":          true,
	"/health/ready":         true,
	"/metrics":              true,
	"/favicon.ico":          true,
	"/api/v1/auth/login":    true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/miniapp":  true,
}

// Gate evaluates requests against the session authority and the auto-login
// bridge.
type Gate struct {
	sessions  SessionValidator
	autoLogin AutoLogin
	logger    *slog.Logger
}

// New creates a request gate.
func New(sessions SessionValidator, autoLogin AutoLogin, logger *slog.Logger) *Gate {
	return &Gate{
		sessions:  sessions,
		autoLogin: autoLogin,
		logger:    logger,
	}
}

// LandingPath maps a role name to its home page. Staff land on the learner
// dashboard, super admins on theirs, and every other role is treated as an
// admin.
func LandingPath(role string) string {
	switch role {
	case domain.RoleSuperAdmin:
		return "/super-admin"
	case domain.RoleStaff:
		return "/dashboard"
	default:
		return "/admin"
	}
}

func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func isAPI(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// Evaluate runs the decision flow in its fixed order: public paths first,
// then the missing-session branch with its auto-login attempt, then full
// session validation, and last the entry-page role redirect. The order is
// load-bearing; auto-login must never preempt a live session and a dead
// session must clear its cookie before the browser is sent to the login
// page.
func (g *Gate) Evaluate(ctx context.Context, req Request) Decision {
	if isPublic(req.Path) {
		return Decision{Action: ActionAllow}
	}

	if req.SessionToken == "" {
		return g.evaluateNoSession(ctx, req)
	}

	claims, err := g.sessions.Validate(ctx, req.SessionToken)
	if err != nil {
		if isAPI(req.Path) {
			return Decision{Action: ActionUnauthorized, ClearSession: true}
		}
		return Decision{Action: ActionRedirect, RedirectTo: "/login", ClearSession: true}
	}

	if entryPages[req.Path] {
		return Decision{Action: ActionRedirect, RedirectTo: LandingPath(claims.Role), Claims: claims}
	}

	return Decision{Action: ActionAllow, Claims: claims}
}

// evaluateNoSession handles requests that arrive without a session cookie.
// API calls are refused outright. Page loads get one auto-login attempt from
// the mirrored mini-app token before falling back to the login page.
func (g *Gate) evaluateNoSession(ctx context.Context, req Request) Decision {
	if isAPI(req.Path) {
		return Decision{Action: ActionUnauthorized}
	}

	if req.ExternalToken != "" {
		user, token, err := g.autoLogin.TryAutoLogin(ctx, req.ExternalToken)
		if err == nil {
			claims := &auth.SessionClaims{
				UserID:             user.ID,
				Name:               user.Name,
				Email:              user.Email,
				Role:               user.Role.Name,
				Permissions:        user.Role.Permissions,
				TrainingProviderID: user.TrainingProviderID,
			}
			if entryPages[req.Path] {
				return Decision{
					Action:      ActionRedirect,
					RedirectTo:  LandingPath(user.Role.Name),
					Claims:      claims,
					SetSession:  token,
					SetExternal: req.ExternalToken,
				}
			}
			return Decision{Action: ActionAllow, Claims: claims, SetSession: token, SetExternal: req.ExternalToken}
		}

		// A rejected or unregistered token will not get better on the
		// next page load; drop it. A provider outage might, so the
		// mirror cookie survives those.
		clearExternal := errors.Is(err, auth.ErrTokenRejected) || errors.Is(err, auth.ErrNotRegistered)
		if entryPages[req.Path] {
			return Decision{Action: ActionAllow, ClearExternal: clearExternal}
		}
		return Decision{Action: ActionRedirect, RedirectTo: "/login", ClearExternal: clearExternal}
	}

	if entryPages[req.Path] {
		return Decision{Action: ActionAllow}
	}
	return Decision{Action: ActionRedirect, RedirectTo: "/login"}
}
