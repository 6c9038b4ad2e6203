package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/middleware"
	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	users repository.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfileRequest represents the request body for updating the
// caller's own profile. Pointer fields distinguish "absent" from "clear".
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}
	return response.Success(c, user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	user, err := h.users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	if req.DisplayName != nil {
		name := validator.SanitizeString(*req.DisplayName, 255)
		if name == "" {
			return response.BadRequest(c, "displayName cannot be empty")
		}
		user.DisplayName = name
	}
	if req.CompanyName != nil {
		user.CompanyName = validator.SanitizeString(*req.CompanyName, 255)
	}
	if req.AvatarURL != nil {
		url := strings.TrimSpace(*req.AvatarURL)
		if len(url) > 500 {
			return response.BadRequest(c, "avatarUrl is too long")
		}
		user.AvatarURL = url
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return response.BadRequest(c, "email is invalid")
		}
		user.Email = email
	}

	if err := h.users.Update(c.Request().Context(), user); err != nil {
		return response.InternalError(c, "failed to update user")
	}

	return response.Success(c, user)
}

// Get handles GET /api/v1/users/:id. Anyone authenticated may look up a
// public display profile; the full account stays private to its owner.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid user ID")
	}

	user, err := h.users.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return response.InternalError(c, "failed to get user")
	}

	return response.Success(c, user.Profile())
}
