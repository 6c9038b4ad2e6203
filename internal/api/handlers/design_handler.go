package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/middleware"
	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// DesignGenerator is the slice of the design service the handler depends
// on. *services.DesignService provides it in production.
type DesignGenerator interface {
	Generate(ctx context.Context, buyerID uint, prompt string) (*models.Design, error)
	List(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error)
	Get(ctx context.Context, callerID, designID uint) (*models.Design, error)
}

// DesignHandler handles AI design HTTP requests
type DesignHandler struct {
	designs DesignGenerator
}

// NewDesignHandler creates a new DesignHandler
func NewDesignHandler(designs DesignGenerator) *DesignHandler {
	return &DesignHandler{designs: designs}
}

// GenerateDesignRequest is the body for generating a design image
type GenerateDesignRequest struct {
	Prompt string `json:"prompt"`
}

// Generate handles POST /api/v1/designs
//
// Calls the image-generation provider synchronously; provider failures
// surface as 502 with the provider named, and leave no design row behind.
func (h *DesignHandler) Generate(c echo.Context) error {
	if middleware.UserRole(c) != models.RoleBuyer {
		return response.Forbidden(c, "only buyers can generate designs")
	}

	var req GenerateDesignRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Prompt == "" {
		return response.BadRequest(c, "prompt is required")
	}

	design, err := h.designs.Generate(c.Request().Context(), middleware.UserID(c), req.Prompt)
	if err != nil {
		return response.ProviderErrorFromError(c, err)
	}

	return response.Created(c, design)
}

// List handles GET /api/v1/designs
func (h *DesignHandler) List(c echo.Context) error {
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
	limit, offset = validator.ValidatePagination(limit, offset)

	designs, total, err := h.designs.List(c.Request().Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list designs")
	}

	return response.Paginated(c, designs, total, limit, offset)
}

// Get handles GET /api/v1/designs/:id
func (h *DesignHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid design ID")
	}

	design, err := h.designs.Get(c.Request().Context(), middleware.UserID(c), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "design not found")
		}
		return response.InternalError(c, "failed to get design")
	}

	return response.Success(c, design)
}
