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

// QuoteNotifier dispatches best-effort notifications for quote lifecycle
// events. *notify.Dispatcher provides it in production; nil disables it.
type QuoteNotifier interface {
	QuoteReceived(buyer *models.User, manufacturerName, requirementTitle string)
	QuoteAccepted(manufacturer *models.User, requirementTitle string)
}

// QuoteHandler handles quote-related HTTP requests
type QuoteHandler struct {
	quotes       repository.QuoteRepository
	requirements repository.RequirementRepository
	users        repository.UserRepository
	notifier     QuoteNotifier
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes repository.QuoteRepository, requirements repository.RequirementRepository, users repository.UserRepository, notifier QuoteNotifier) *QuoteHandler {
	return &QuoteHandler{
		quotes:       quotes,
		requirements: requirements,
		users:        users,
		notifier:     notifier,
	}
}

// SubmitQuoteRequest is the body for quoting a requirement
type SubmitQuoteRequest struct {
	Price        float64 `json:"price"`
	LeadTimeDays int     `json:"leadTimeDays"`
	Notes        string  `json:"notes"`
}

// UpdateQuoteRequest moves a quote to accepted or rejected
type UpdateQuoteRequest struct {
	Status string `json:"status"`
}

// Create handles POST /api/v1/requirements/:id/quotes
//
// One quote per (requirement, manufacturer): a second submission returns
// 409. The requirement owner gets a best-effort notification.
func (h *QuoteHandler) Create(c echo.Context) error {
	if middleware.UserRole(c) != models.RoleManufacturer {
		return response.Forbidden(c, "only manufacturers can submit quotes")
	}

	requirementID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid requirement ID")
	}

	var req SubmitQuoteRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Price <= 0 {
		return response.BadRequest(c, "price must be positive")
	}
	if req.LeadTimeDays < 0 {
		return response.BadRequest(c, "leadTimeDays cannot be negative")
	}

	requirement, err := h.requirements.GetByID(c.Request().Context(), uint(requirementID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "requirement not found")
		}
		return response.InternalError(c, "failed to get requirement")
	}
	if requirement.Status != models.RequirementStatusOpen {
		return response.BadRequest(c, "requirement is closed")
	}

	quote := &models.Quote{
		RequirementID:  requirement.ID,
		ManufacturerID: middleware.UserID(c),
		Price:          req.Price,
		LeadTimeDays:   req.LeadTimeDays,
		Notes:          validator.SanitizeString(req.Notes, 2000),
		Status:         models.QuoteStatusPending,
	}

	if err := h.quotes.Create(c.Request().Context(), quote); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "you have already quoted this requirement")
		}
		return response.InternalError(c, "failed to create quote")
	}

	if h.notifier != nil {
		buyer, buyerErr := h.users.GetByID(c.Request().Context(), requirement.BuyerID)
		manufacturer, mfrErr := h.users.GetByID(c.Request().Context(), quote.ManufacturerID)
		if buyerErr == nil && mfrErr == nil {
			h.notifier.QuoteReceived(buyer, manufacturer.DisplayName, requirement.Title)
		}
	}

	return response.Created(c, quote)
}

// ListByRequirement handles GET /api/v1/requirements/:id/quotes
//
// The requirement owner sees every quote; a manufacturer sees only their own.
func (h *QuoteHandler) ListByRequirement(c echo.Context) error {
	requirementID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid requirement ID")
	}

	requirement, err := h.requirements.GetByID(c.Request().Context(), uint(requirementID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "requirement not found")
		}
		return response.InternalError(c, "failed to get requirement")
	}

	callerID := middleware.UserID(c)
	if requirement.BuyerID != callerID && middleware.UserRole(c) != models.RoleManufacturer {
		return response.Forbidden(c, "not allowed to view these quotes")
	}

	quotes, err := h.quotes.ListByRequirement(c.Request().Context(), requirement.ID)
	if err != nil {
		return response.InternalError(c, "failed to list quotes")
	}

	if requirement.BuyerID != callerID {
		own := make([]models.Quote, 0, 1)
		for _, quote := range quotes {
			if quote.ManufacturerID == callerID {
				own = append(own, quote)
			}
		}
		quotes = own
	}

	return response.Success(c, quotes)
}

// UpdateStatus handles PATCH /api/v1/quotes/:id
//
// Only the requirement owner may act. Accepting a quote rejects its pending
// siblings and closes the requirement in one transaction, then notifies the
// winning manufacturer best-effort.
func (h *QuoteHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid quote ID")
	}

	var req UpdateQuoteRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Status != models.QuoteStatusAccepted && req.Status != models.QuoteStatusRejected {
		return response.BadRequest(c, "status must be accepted or rejected")
	}

	quote, err := h.quotes.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "quote not found")
		}
		return response.InternalError(c, "failed to get quote")
	}
	if quote.Requirement.BuyerID != middleware.UserID(c) {
		return response.Forbidden(c, "only the requirement owner can act on quotes")
	}
	if quote.Status != models.QuoteStatusPending {
		return response.BadRequest(c, "only pending quotes can be updated")
	}

	if req.Status == models.QuoteStatusAccepted {
		if err := h.quotes.Accept(c.Request().Context(), quote.ID); err != nil {
			if errors.Is(err, repository.ErrInvalidInput) {
				return response.BadRequest(c, "only pending quotes can be accepted")
			}
			return response.InternalError(c, "failed to accept quote")
		}

		if h.notifier != nil {
			manufacturer, mfrErr := h.users.GetByID(c.Request().Context(), quote.ManufacturerID)
			if mfrErr == nil {
				h.notifier.QuoteAccepted(manufacturer, quote.Requirement.Title)
			}
		}
	} else {
		if err := h.quotes.UpdateStatus(c.Request().Context(), quote.ID, models.QuoteStatusRejected); err != nil {
			return response.InternalError(c, "failed to reject quote")
		}
	}

	quote.Status = req.Status
	return response.Success(c, quote)
}
