package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// RequirementListOptions narrows a requirement listing
type RequirementListOptions struct {
	BuyerID  *uint
	Category string
	Status   string
	Limit    int
	Offset   int
}

// RequirementRepository defines the interface for requirement data access
type RequirementRepository interface {
	Create(ctx context.Context, requirement *models.Requirement) error
	GetByID(ctx context.Context, id uint) (*models.Requirement, error)
	List(ctx context.Context, opts RequirementListOptions) ([]models.Requirement, int64, error)
	Update(ctx context.Context, requirement *models.Requirement) error
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// requirementRepository implements RequirementRepository using GORM
type requirementRepository struct {
	db *gorm.DB
}

// NewRequirementRepository creates a new RequirementRepository instance
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepository{db: db}
}

// Create creates a new requirement
func (r *requirementRepository) Create(ctx context.Context, requirement *models.Requirement) error {
	result := r.db.WithContext(ctx).Create(requirement)
	if result.Error != nil {
		return fmt.Errorf("failed to create requirement: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a requirement by its ID
func (r *requirementRepository) GetByID(ctx context.Context, id uint) (*models.Requirement, error) {
	var requirement models.Requirement
	result := r.db.WithContext(ctx).First(&requirement, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get requirement by ID: %w", result.Error)
	}
	return &requirement, nil
}

// List retrieves requirements with optional filters and pagination,
// newest first, along with a total count for the same filters
func (r *requirementRepository) List(ctx context.Context, opts RequirementListOptions) ([]models.Requirement, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Requirement{})
	if opts.BuyerID != nil {
		query = query.Where("buyer_id = ?", *opts.BuyerID)
	}
	if opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requirements: %w", err)
	}

	var requirements []models.Requirement
	if err := query.Order("created_at DESC").Limit(limit).Offset(opts.Offset).Find(&requirements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list requirements: %w", err)
	}

	return requirements, total, nil
}

// Update saves changes to an existing requirement
func (r *requirementRepository) Update(ctx context.Context, requirement *models.Requirement) error {
	result := r.db.WithContext(ctx).Save(requirement)
	if result.Error != nil {
		return fmt.Errorf("failed to update requirement: %w", result.Error)
	}
	return nil
}

// UpdateStatus updates the status of a requirement
func (r *requirementRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Requirement{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update requirement status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
