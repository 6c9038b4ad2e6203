package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// DesignRepository defines the interface for design data access
type DesignRepository interface {
	Create(ctx context.Context, design *models.Design) error
	GetByID(ctx context.Context, id uint) (*models.Design, error)
	ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error)
}

// designRepository implements DesignRepository using GORM
type designRepository struct {
	db *gorm.DB
}

// NewDesignRepository creates a new DesignRepository instance
func NewDesignRepository(db *gorm.DB) DesignRepository {
	return &designRepository{db: db}
}

// Create creates a new design
func (r *designRepository) Create(ctx context.Context, design *models.Design) error {
	result := r.db.WithContext(ctx).Create(design)
	if result.Error != nil {
		return fmt.Errorf("failed to create design: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a design by its ID
func (r *designRepository) GetByID(ctx context.Context, id uint) (*models.Design, error) {
	var design models.Design
	result := r.db.WithContext(ctx).First(&design, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get design by ID: %w", result.Error)
	}
	return &design, nil
}

// ListByBuyer retrieves designs generated by a buyer with pagination,
// newest first
func (r *designRepository) ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Design{}).Where("buyer_id = ?", buyerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count designs: %w", err)
	}

	var designs []models.Design
	result := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&designs)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list designs: %w", result.Error)
	}

	return designs, total, nil
}
