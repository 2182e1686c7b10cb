package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/platform/validation"
	"rocr/backend/internal/server/middleware"
	"rocr/backend/internal/user/domain"
	"rocr/backend/internal/user/service"
)

// UserHandler serves the admin-only /api/v1/users routes.
type UserHandler struct {
	users    *service.UserService
	validate *validation.Validator
}

// NewUserHandler returns a UserHandler.
func NewUserHandler(users *service.UserService, validate *validation.Validator) *UserHandler {
	return &UserHandler{users: users, validate: validate}
}

type createUserRequest struct {
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8"`
	Name       string   `json:"name" validate:"required,min=1,max=100"`
	Role       string   `json:"role" validate:"omitempty,oneof=admin manager employee freelancer"`
	Phone      *string  `json:"phone"`
	HourlyRate *float64 `json:"hourlyRate" validate:"omitempty,gt=0"`
}

type updateUserRequest struct {
	Email      *string                 `json:"email" validate:"omitempty,email"`
	Name       *string                 `json:"name" validate:"omitempty,min=1,max=100"`
	Role       *string                 `json:"role" validate:"omitempty,oneof=admin manager employee freelancer"`
	IsActive   *bool                   `json:"isActive"`
	Phone      httpx.Nullable[string]  `json:"phone"`
	HourlyRate httpx.Nullable[float64] `json:"hourlyRate"`
	AvatarURL  httpx.Nullable[string]  `json:"avatarUrl"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req createUserRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	role := domain.RoleEmployee
	if req.Role != "" {
		role = domain.ParseRole(req.Role)
	}
	u, err := h.users.Create(r.Context(), service.CreateInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       role,
		Phone:      req.Phone,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		return userError(err)
	}
	httpx.Data(w, http.StatusCreated, u)
	return nil
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.users.List(r.Context())
	if err != nil {
		return err
	}
	httpx.Data(w, http.StatusOK, users)
	return nil
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) error {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return userError(err)
	}
	httpx.Data(w, http.StatusOK, u)
	return nil
}

// Update handles PATCH /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) error {
	var req updateUserRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	if req.HourlyRate.Value != nil {
		if err := h.validate.Var("hourlyRate", *req.HourlyRate.Value, "gt=0"); err != nil {
			return err
		}
	}
	if req.AvatarURL.Value != nil {
		if err := h.validate.Var("avatarUrl", *req.AvatarURL.Value, "url"); err != nil {
			return err
		}
	}
	in := service.UpdateInput{
		Email:         req.Email,
		Name:          req.Name,
		IsActive:      req.IsActive,
		SetPhone:      req.Phone.Set,
		Phone:         req.Phone.Value,
		SetHourlyRate: req.HourlyRate.Set,
		HourlyRate:    req.HourlyRate.Value,
		SetAvatarURL:  req.AvatarURL.Set,
		AvatarURL:     req.AvatarURL.Value,
	}
	if req.Role != nil {
		role := domain.ParseRole(*req.Role)
		in.Role = &role
	}
	actor := middleware.UserFromContext(r.Context())
	u, err := h.users.Update(r.Context(), actor.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		return userError(err)
	}
	httpx.Data(w, http.StatusOK, u)
	return nil
}

// ResetPassword handles POST /users/{id}/reset-password.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req resetPasswordRequest
	if err := httpx.Decode(r, h.validate, &req); err != nil {
		return err
	}
	if err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		return userError(err)
	}
	httpx.Message(w, "Password reset successfully")
	return nil
}

// Deactivate handles DELETE /users/{id}. Users are deactivated, not removed.
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) error {
	actor := middleware.UserFromContext(r.Context())
	if err := h.users.Deactivate(r.Context(), actor.ID, chi.URLParam(r, "id")); err != nil {
		return userError(err)
	}
	httpx.Message(w, "User deactivated successfully")
	return nil
}

func userError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apperror.NotFound("User not found")
	case errors.Is(err, service.ErrDuplicateEmail):
		return apperror.Conflict(apperror.CodeDuplicateEmail, "Email already exists")
	case errors.Is(err, service.ErrSelfDemotion):
		return apperror.BadRequest(apperror.CodeSelfDemotion, "Cannot demote yourself")
	case errors.Is(err, service.ErrSelfDeletion):
		return apperror.BadRequest(apperror.CodeSelfDeletion, "Cannot delete yourself")
	default:
		return err
	}
}
