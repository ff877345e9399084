package gate

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temaribet/lms/internal/auth"
	"github.com/temaribet/lms/internal/domain"
)

// --- Mock Session Validator ---

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Validate(ctx context.Context, token string) (*auth.SessionClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.SessionClaims), args.Error(1)
}

// --- Mock Auto Login ---

type mockAutoLogin struct {
	mock.Mock
}

func (m *mockAutoLogin) TryAutoLogin(ctx context.Context, externalToken string) (*domain.User, string, error) {
	args := m.Called(ctx, externalToken)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func newTestGate(v *mockValidator, a *mockAutoLogin) *Gate {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(v, a, logger)
}

func staffClaims() *auth.SessionClaims {
	return &auth.SessionClaims{UserID: "user-1", Role: domain.RoleStaff, SessionID: "nonce-1"}
}

func staffUser() *domain.User {
	return &domain.User{
		ID:       "user-1",
		Name:     "Sara Bekele",
		Phone:    "+251911223344",
		Role:     domain.Role{Name: domain.RoleStaff},
		IsActive: true,
	}
}

func TestEvaluate_PublicPathsSkipSessionCheck(t *testing.T) {
	v := new(mockValidator)
	g := newTestGate(v, new(mockAutoLogin))

	for _, path := range []string{"/health", "/metrics", "/static/app.css", "/api/v1/auth/login"} {
		d := g.Evaluate(context.Background(), Request{Path: path, SessionToken: "whatever"})
		assert.Equal(t, ActionAllow, d.Action, path)
	}
	v.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
}

func TestEvaluate_NoSession_APIGets401(t *testing.T) {
	g := newTestGate(new(mockValidator), new(mockAutoLogin))

	d := g.Evaluate(context.Background(), Request{Path: "/api/v1/courses"})
	assert.Equal(t, ActionUnauthorized, d.Action)
}

func TestEvaluate_NoSession_PageRedirectsToLogin(t *testing.T) {
	g := newTestGate(new(mockValidator), new(mockAutoLogin))

	d := g.Evaluate(context.Background(), Request{Path: "/dashboard"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login", d.RedirectTo)
}

func TestEvaluate_NoSession_EntryPageRenders(t *testing.T) {
	g := newTestGate(new(mockValidator), new(mockAutoLogin))

	for _, path := range []string{"/", "/login", "/register"} {
		d := g.Evaluate(context.Background(), Request{Path: path})
		assert.Equal(t, ActionAllow, d.Action, path)
	}
}

func TestEvaluate_AutoLoginIssuesSessionAndRedirects(t *testing.T) {
	a := new(mockAutoLogin)
	g := newTestGate(new(mockValidator), a)
	ctx := context.Background()

	a.On("TryAutoLogin", ctx, "ext-token").Return(staffUser(), "signed-token", nil)

	d := g.Evaluate(ctx, Request{Path: "/", ExternalToken: "ext-token"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/dashboard", d.RedirectTo)
	assert.Equal(t, "signed-token", d.SetSession)
}

func TestEvaluate_AutoLoginOnDeepLinkAllowsThrough(t *testing.T) {
	a := new(mockAutoLogin)
	g := newTestGate(new(mockValidator), a)
	ctx := context.Background()

	a.On("TryAutoLogin", ctx, "ext-token").Return(staffUser(), "signed-token", nil)

	d := g.Evaluate(ctx, Request{Path: "/courses/42", ExternalToken: "ext-token"})
	assert.Equal(t, ActionAllow, d.Action)
	assert.Equal(t, "signed-token", d.SetSession)
	assert.Equal(t, "user-1", d.Claims.UserID)
}

func TestEvaluate_AutoLoginRejectedClearsExternalCookie(t *testing.T) {
	a := new(mockAutoLogin)
	g := newTestGate(new(mockValidator), a)
	ctx := context.Background()

	a.On("TryAutoLogin", ctx, "dead-token").Return(nil, "", auth.ErrTokenRejected)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", ExternalToken: "dead-token"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login", d.RedirectTo)
	assert.True(t, d.ClearExternal)
}

func TestEvaluate_AutoLoginUnregisteredFailsClosed(t *testing.T) {
	a := new(mockAutoLogin)
	g := newTestGate(new(mockValidator), a)
	ctx := context.Background()

	a.On("TryAutoLogin", ctx, "ext-token").Return(nil, "", auth.ErrNotRegistered)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", ExternalToken: "ext-token"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login", d.RedirectTo)
	assert.Empty(t, d.SetSession)
	assert.True(t, d.ClearExternal)
}

func TestEvaluate_AutoLoginProviderOutageKeepsExternalCookie(t *testing.T) {
	a := new(mockAutoLogin)
	g := newTestGate(new(mockValidator), a)
	ctx := context.Background()

	a.On("TryAutoLogin", ctx, "ext-token").Return(nil, "", context.DeadlineExceeded)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", ExternalToken: "ext-token"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.False(t, d.ClearExternal)
}

func TestEvaluate_InvalidSessionClearsCookieAndRedirects(t *testing.T) {
	v := new(mockValidator)
	g := newTestGate(v, new(mockAutoLogin))
	ctx := context.Background()

	v.On("Validate", ctx, "stale-token").Return(nil, auth.ErrInvalidSession)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", SessionToken: "stale-token"})
	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login", d.RedirectTo)
	assert.True(t, d.ClearSession)
}

func TestEvaluate_InvalidSessionOnAPI(t *testing.T) {
	v := new(mockValidator)
	g := newTestGate(v, new(mockAutoLogin))
	ctx := context.Background()

	v.On("Validate", ctx, "stale-token").Return(nil, auth.ErrInvalidSession)

	d := g.Evaluate(ctx, Request{Path: "/api/v1/auth/me", SessionToken: "stale-token"})
	assert.Equal(t, ActionUnauthorized, d.Action)
	assert.True(t, d.ClearSession)
}

func TestEvaluate_ValidSessionAllowsProtectedPage(t *testing.T) {
	v := new(mockValidator)
	g := newTestGate(v, new(mockAutoLogin))
	ctx := context.Background()

	v.On("Validate", ctx, "good-token").Return(staffClaims(), nil)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", SessionToken: "good-token"})
	assert.Equal(t, ActionAllow, d.Action)
	assert.Equal(t, "user-1", d.Claims.UserID)
}

func TestEvaluate_ValidSessionOnEntryPageRedirectsByRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{domain.RoleStaff, "/dashboard"},
		{domain.RoleSuperAdmin, "/super-admin"},
		{domain.RoleAdmin, "/admin"},
		{"content editor", "/admin"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			v := new(mockValidator)
			g := newTestGate(v, new(mockAutoLogin))
			ctx := context.Background()

			claims := &auth.SessionClaims{UserID: "user-1", Role: tt.role}
			v.On("Validate", ctx, "good-token").Return(claims, nil)

			d := g.Evaluate(ctx, Request{Path: "/login", SessionToken: "good-token"})
			assert.Equal(t, ActionRedirect, d.Action)
			assert.Equal(t, tt.want, d.RedirectTo)
		})
	}
}

func TestEvaluate_ValidSessionSkipsAutoLogin(t *testing.T) {
	v := new(mockValidator)
	a := new(mockAutoLogin)
	g := newTestGate(v, a)
	ctx := context.Background()

	v.On("Validate", ctx, "good-token").Return(staffClaims(), nil)

	d := g.Evaluate(ctx, Request{Path: "/dashboard", SessionToken: "good-token", ExternalToken: "ext-token"})
	assert.Equal(t, ActionAllow, d.Action)
	a.AssertNotCalled(t, "TryAutoLogin", mock.Anything, mock.Anything)
}
