package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/temaribet/lms/pkg/errors"
	"github.com/temaribet/lms/pkg/httputil"
	"github.com/temaribet/lms/pkg/validator"

	"github.com/temaribet/lms/internal/auth"
	"github.com/temaribet/lms/internal/gate"
	"github.com/temaribet/lms/internal/service"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	bridge  *auth.Bridge
	ttl     time.Duration
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. ttl is the session cookie
// lifetime, kept equal to the token lifetime.
func NewAuthHandler(svc *service.AuthService, bridge *auth.Bridge, ttl time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, bridge: bridge, ttl: ttl, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	Email              string `json:"email" validate:"omitempty,email"`
	Phone              string `json:"phone" validate:"omitempty,e164"`
	Password           string `json:"password" validate:"required,min=8"`
	TrainingProviderID string `json:"training_provider_id" validate:"omitempty,max=100"`
}

// LoginRequest is the JSON request body for credential login. Identifier is
// an email address or phone number.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// MiniAppLoginRequest is the JSON request body for the mini-app bridge.
type MiniAppLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, token, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Password:           req.Password,
		TrainingProviderID: req.TrainingProviderID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	gate.SetSessionCookie(w, token, h.ttl)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	gate.SetSessionCookie(w, token, h.ttl)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// MiniAppLogin handles POST /api/v1/auth/miniapp. The presented platform
// token is verified upstream, exchanged for a session, and mirrored in its
// own cookie for later silent logins.
func (h *AuthHandler) MiniAppLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req MiniAppLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, token, err := h.bridge.TryAutoLogin(r.Context(), req.Token)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("login failed"), h.logger)
		return
	}

	gate.SetSessionCookie(w, token, h.ttl)
	gate.SetExternalCookie(w, req.Token, h.ttl)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := gate.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	gate.ClearSessionCookie(w)
	gate.ClearExternalCookie(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "logged out"}})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := gate.ClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}
