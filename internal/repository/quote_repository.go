package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// QuoteRepository defines the interface for quote data access
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uint) (*models.Quote, error)
	ListByRequirement(ctx context.Context, requirementID uint) ([]models.Quote, error)
	Accept(ctx context.Context, id uint) error
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// quoteRepository implements QuoteRepository using GORM
type quoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new QuoteRepository instance
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

// Create creates a new quote
func (r *quoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	result := r.db.WithContext(ctx).Create(quote)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("quote for requirement %d by manufacturer %d already exists: %w",
				quote.RequirementID, quote.ManufacturerID, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create quote: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a quote by its ID with the requirement preloaded
func (r *quoteRepository) GetByID(ctx context.Context, id uint) (*models.Quote, error) {
	var quote models.Quote
	result := r.db.WithContext(ctx).Preload("Requirement").First(&quote, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote by ID: %w", result.Error)
	}
	return &quote, nil
}

// ListByRequirement retrieves all quotes submitted against a requirement,
// newest first
func (r *quoteRepository) ListByRequirement(ctx context.Context, requirementID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	result := r.db.WithContext(ctx).
		Where("requirement_id = ?", requirementID).
		Order("created_at DESC").
		Find(&quotes)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", result.Error)
	}
	return quotes, nil
}

// Accept marks a quote accepted, rejects its pending siblings, and closes
// the requirement, all in one transaction. Only pending quotes can be
// accepted; anything else returns ErrInvalidInput.
func (r *quoteRepository) Accept(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quote models.Quote
		if err := tx.First(&quote, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get quote: %w", err)
		}

		if quote.Status != models.QuoteStatusPending {
			return fmt.Errorf("quote %d is %s: %w", id, quote.Status, ErrInvalidInput)
		}

		if err := tx.Model(&models.Quote{}).Where("id = ?", id).
			Update("status", models.QuoteStatusAccepted).Error; err != nil {
			return fmt.Errorf("failed to accept quote: %w", err)
		}

		if err := tx.Model(&models.Quote{}).
			Where("requirement_id = ? AND id <> ? AND status = ?", quote.RequirementID, id, models.QuoteStatusPending).
			Update("status", models.QuoteStatusRejected).Error; err != nil {
			return fmt.Errorf("failed to reject sibling quotes: %w", err)
		}

		if err := tx.Model(&models.Requirement{}).Where("id = ?", quote.RequirementID).
			Update("status", models.RequirementStatusClosed).Error; err != nil {
			return fmt.Errorf("failed to close requirement: %w", err)
		}

		return nil
	})
}

// UpdateStatus updates the status of a quote
func (r *quoteRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update quote status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
