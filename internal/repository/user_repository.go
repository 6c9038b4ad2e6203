package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetOrCreateByPhone(ctx context.Context, phone, role, displayName string) (*models.User, bool, error)
	GetProfiles(ctx context.Context, ids []uint) (map[uint]models.DisplayProfile, error)
	Update(ctx context.Context, user *models.User) error
}

// userRepository implements UserRepository using GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("user with phone %s already exists: %w", user.Phone, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", result.Error)
	}
	return &user, nil
}

// GetByPhone retrieves a user by phone number
func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", result.Error)
	}
	return &user, nil
}

// GetOrCreateByPhone retrieves the user registered under the phone number,
// creating an account with the given role and display name on first
// sign-in. Returns the user, a boolean indicating if it was created, and
// any error. The unique index on phone makes concurrent first sign-ins
// converge on one account; role and display name are ignored for existing
// users.
func (r *userRepository) GetOrCreateByPhone(ctx context.Context, phone, role, displayName string) (*models.User, bool, error) {
	user, err := r.GetByPhone(ctx, phone)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	user = &models.User{
		Phone:       phone,
		Role:        role,
		DisplayName: displayName,
	}

	if err := r.Create(ctx, user); err != nil {
		// Handle race condition - another request might have created it
		if errors.Is(err, ErrDuplicateEntry) {
			user, err = r.GetByPhone(ctx, phone)
			if err != nil {
				return nil, false, err
			}
			return user, false, nil
		}
		return nil, false, err
	}

	return user, true, nil
}

// GetProfiles loads display profiles for a batch of user IDs in one query
func (r *userRepository) GetProfiles(ctx context.Context, ids []uint) (map[uint]models.DisplayProfile, error) {
	profiles := make(map[uint]models.DisplayProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	var users []models.User
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get user profiles: %w", result.Error)
	}

	for i := range users {
		profiles[users[i].ID] = users[i].Profile()
	}
	return profiles, nil
}

// Update saves changes to an existing user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("user with phone %s already exists: %w", user.Phone, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	return nil
}
