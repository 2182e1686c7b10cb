package handler

import (
	"errors"
	"net/http"

	"rocr/backend/internal/identity/service"
	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/platform/validation"
	"rocr/backend/internal/server/middleware"
)

// AuthHandler serves /api/v1/auth.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validation.Validator
}

// NewAuthHandler returns an AuthHandler backed by auth.
func NewAuthHandler(auth *service.AuthService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: auth, validate: validate}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	ip := ""
	if v := middleware.ClientIP(r); v != "unknown" {
		ip = v
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent(), ip)
	if err != nil {
		return authError(err)
	}
	httpx.Data(w, http.StatusOK, res)
	return nil
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req refreshRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	access, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return authError(err)
	}
	httpx.Data(w, http.StatusOK, map[string]string{"accessToken": access})
	return nil
}

// Logout handles POST /auth/logout. A missing or unreadable body logs out every session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	u := middleware.UserFromContext(r.Context())
	var req logoutRequest
	_ = httpx.Decode(r, nil, &req)
	if err := h.auth.Logout(r.Context(), u.ID, req.RefreshToken); err != nil {
		return err
	}
	httpx.Message(w, "Logged out successfully")
	return nil
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) error {
	httpx.Data(w, http.StatusOK, middleware.UserFromContext(r.Context()))
	return nil
}

// UpdatePassword handles POST /auth/update-password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) error {
	var req updatePasswordRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	u := middleware.UserFromContext(r.Context())
	if err := h.auth.UpdatePassword(r.Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		return authError(err)
	}
	httpx.Message(w, "Password updated successfully. Please login again.")
	return nil
}

// authError maps AuthService sentinel errors to HTTP errors. Unknown errors pass through as 500s.
func authError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperror.Unauthorized(apperror.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, service.ErrAccountInactive):
		return apperror.Unauthorized(apperror.CodeAccountInactive, "Account is inactive")
	case errors.Is(err, service.ErrInvalidToken):
		return apperror.Unauthorized(apperror.CodeInvalidToken, "Invalid refresh token")
	case errors.Is(err, service.ErrInvalidTokenType):
		return apperror.Unauthorized(apperror.CodeInvalidTokenType, "Invalid token type")
	case errors.Is(err, service.ErrSessionNotFound):
		return apperror.Unauthorized(apperror.CodeSessionNotFound, "Session not found")
	case errors.Is(err, service.ErrSessionExpired):
		return apperror.Unauthorized(apperror.CodeSessionExpired, "Session expired")
	case errors.Is(err, service.ErrUserInvalid):
		return apperror.Unauthorized(apperror.CodeUserInvalid, "User not found or inactive")
	case errors.Is(err, service.ErrInvalidPassword):
		return apperror.BadRequest(apperror.CodeInvalidPassword, "Current password is incorrect")
	default:
		return err
	}
}
