package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/middleware"
	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// RequirementHandler handles sourcing requirement HTTP requests
type RequirementHandler struct {
	requirements repository.RequirementRepository
}

// NewRequirementHandler creates a new RequirementHandler
func NewRequirementHandler(requirements repository.RequirementRepository) *RequirementHandler {
	return &RequirementHandler{requirements: requirements}
}

// CreateRequirementRequest is the body for posting a new requirement
type CreateRequirementRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	TargetPrice float64 `json:"targetPrice"`
}

// UpdateRequirementRequest is the body for editing a requirement. Pointer
// fields distinguish "absent" from "clear".
type UpdateRequirementRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Quantity    *int     `json:"quantity"`
	TargetPrice *float64 `json:"targetPrice"`
	Status      *string  `json:"status"`
}

// Create handles POST /api/v1/requirements
func (h *RequirementHandler) Create(c echo.Context) error {
	if middleware.UserRole(c) != models.RoleBuyer {
		return response.Forbidden(c, "only buyers can post requirements")
	}

	var req CreateRequirementRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	title := validator.SanitizeString(req.Title, 255)
	if title == "" {
		return response.BadRequest(c, "title is required")
	}
	if req.Quantity < 0 {
		return response.BadRequest(c, "quantity cannot be negative")
	}
	if req.TargetPrice < 0 {
		return response.BadRequest(c, "targetPrice cannot be negative")
	}

	requirement := &models.Requirement{
		BuyerID:     middleware.UserID(c),
		Title:       title,
		Description: validator.SanitizeString(req.Description, 5000),
		Category:    validator.SanitizeString(req.Category, 100),
		Quantity:    req.Quantity,
		TargetPrice: req.TargetPrice,
		Status:      models.RequirementStatusOpen,
	}

	if err := h.requirements.Create(c.Request().Context(), requirement); err != nil {
		return response.InternalError(c, "failed to create requirement")
	}

	return response.Created(c, requirement)
}

// List handles GET /api/v1/requirements
//
// mine=true narrows the listing to the caller's own requirements; category
// and status narrow further. Offset pagination.
func (h *RequirementHandler) List(c echo.Context) error {
	opts := repository.RequirementListOptions{
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
	}

	if opts.Status != "" && opts.Status != models.RequirementStatusOpen && opts.Status != models.RequirementStatusClosed {
		return response.BadRequest(c, "status must be open or closed")
	}

	if c.QueryParam("mine") == "true" {
		callerID := middleware.UserID(c)
		opts.BuyerID = &callerID
	}

	limit := 0
	offset := 0
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	opts.Limit, opts.Offset = validator.ValidatePagination(limit, offset)

	requirements, total, err := h.requirements.List(c.Request().Context(), opts)
	if err != nil {
		return response.InternalError(c, "failed to list requirements")
	}

	return response.Paginated(c, requirements, total, opts.Limit, opts.Offset)
}

// Get handles GET /api/v1/requirements/:id
func (h *RequirementHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid requirement ID")
	}

	requirement, err := h.requirements.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "requirement not found")
		}
		return response.InternalError(c, "failed to get requirement")
	}

	return response.Success(c, requirement)
}

// Update handles PATCH /api/v1/requirements/:id
func (h *RequirementHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid requirement ID")
	}

	var req UpdateRequirementRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	requirement, err := h.requirements.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "requirement not found")
		}
		return response.InternalError(c, "failed to get requirement")
	}
	if requirement.BuyerID != middleware.UserID(c) {
		return response.Forbidden(c, "only the requirement owner can update it")
	}

	if req.Title != nil {
		title := validator.SanitizeString(*req.Title, 255)
		if title == "" {
			return response.BadRequest(c, "title cannot be empty")
		}
		requirement.Title = title
	}
	if req.Description != nil {
		requirement.Description = validator.SanitizeString(*req.Description, 5000)
	}
	if req.Category != nil {
		requirement.Category = validator.SanitizeString(*req.Category, 100)
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return response.BadRequest(c, "quantity cannot be negative")
		}
		requirement.Quantity = *req.Quantity
	}
	if req.TargetPrice != nil {
		if *req.TargetPrice < 0 {
			return response.BadRequest(c, "targetPrice cannot be negative")
		}
		requirement.TargetPrice = *req.TargetPrice
	}
	if req.Status != nil {
		if *req.Status != models.RequirementStatusOpen && *req.Status != models.RequirementStatusClosed {
			return response.BadRequest(c, "status must be open or closed")
		}
		requirement.Status = *req.Status
	}

	if err := h.requirements.Update(c.Request().Context(), requirement); err != nil {
		return response.InternalError(c, "failed to update requirement")
	}

	return response.Success(c, requirement)
}
