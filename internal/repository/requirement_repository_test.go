package repository

import (
	"context"
	"testing"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequirementRepositoryTestSuite is the test suite for RequirementRepository
type RequirementRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  RequirementRepository
	buyer *models.User
	other *models.User
}

// SetupSuite runs once before all tests
func (s *RequirementRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	// Auto-migrate models
	err = db.AutoMigrate(&models.User{}, &models.Requirement{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewRequirementRepository(db)
}

// TearDownSuite runs once after all tests
func (s *RequirementRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data and create fixtures
func (s *RequirementRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM requirements")
	s.db.Exec("DELETE FROM users")

	s.buyer = &models.User{Phone: "+15550004001", Role: models.RoleBuyer, DisplayName: "Alice Chen"}
	require.NoError(s.T(), s.db.Create(s.buyer).Error)
	s.other = &models.User{Phone: "+15550004002", Role: models.RoleBuyer, DisplayName: "Bob Tan"}
	require.NoError(s.T(), s.db.Create(s.other).Error)
}

// TestRequirementRepositoryTestSuite runs the test suite
func TestRequirementRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RequirementRepositoryTestSuite))
}

// createRequirement inserts a requirement with an explicit creation time so
// ordering assertions do not depend on insert speed.
func (s *RequirementRepositoryTestSuite) createRequirement(buyerID uint, title, category string, createdAt time.Time) *models.Requirement {
	requirement := &models.Requirement{
		BuyerID:   buyerID,
		Title:     title,
		Category:  category,
		Quantity:  100,
		Status:    models.RequirementStatusOpen,
		CreatedAt: createdAt,
	}
	require.NoError(s.T(), s.db.Create(requirement).Error)
	return requirement
}

// ==================== Create Tests ====================

func (s *RequirementRepositoryTestSuite) TestCreate_Success() {
	// Arrange
	requirement := &models.Requirement{
		BuyerID:     s.buyer.ID,
		Title:       "500 denim jackets",
		Description: "Stonewashed, two front pockets.",
		Category:    "apparel",
		Quantity:    500,
		TargetPrice: 18.5,
		Status:      models.RequirementStatusOpen,
	}

	// Act
	err := s.repo.Create(context.Background(), requirement)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), requirement.ID)
	assert.False(s.T(), requirement.CreatedAt.IsZero())
}

// ==================== GetByID Tests ====================

func (s *RequirementRepositoryTestSuite) TestGetByID_Found() {
	// Arrange
	created := s.createRequirement(s.buyer.ID, "2000m batik fabric", "textiles", time.Now())

	// Act
	result, err := s.repo.GetByID(context.Background(), created.ID)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), result)
	assert.Equal(s.T(), "2000m batik fabric", result.Title)
	assert.Equal(s.T(), models.RequirementStatusOpen, result.Status)
}

func (s *RequirementRepositoryTestSuite) TestGetByID_NotFound() {
	// Act
	result, err := s.repo.GetByID(context.Background(), 99999)

	// Assert
	assert.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), result)
}

// ==================== List Tests ====================

func (s *RequirementRepositoryTestSuite) TestList_NewestFirst() {
	// Arrange
	base := time.Now().Add(-time.Hour)
	s.createRequirement(s.buyer.ID, "oldest", "apparel", base)
	s.createRequirement(s.buyer.ID, "middle", "apparel", base.Add(10*time.Minute))
	s.createRequirement(s.buyer.ID, "newest", "apparel", base.Add(20*time.Minute))

	// Act
	result, total, err := s.repo.List(context.Background(), RequirementListOptions{})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), total)
	require.Len(s.T(), result, 3)
	assert.Equal(s.T(), "newest", result[0].Title)
	assert.Equal(s.T(), "oldest", result[2].Title)
}

func (s *RequirementRepositoryTestSuite) TestList_FilterByBuyer() {
	// Arrange
	now := time.Now()
	mine := s.createRequirement(s.buyer.ID, "mine", "apparel", now)
	s.createRequirement(s.other.ID, "theirs", "apparel", now)

	// Act
	result, total, err := s.repo.List(context.Background(), RequirementListOptions{BuyerID: &s.buyer.ID})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), mine.ID, result[0].ID)
}

func (s *RequirementRepositoryTestSuite) TestList_FilterByCategoryAndStatus() {
	// Arrange
	now := time.Now()
	s.createRequirement(s.buyer.ID, "jackets", "apparel", now)
	ceramics := s.createRequirement(s.buyer.ID, "mugs", "ceramics", now)
	closed := s.createRequirement(s.buyer.ID, "closed mugs", "ceramics", now)
	require.NoError(s.T(), s.repo.UpdateStatus(context.Background(), closed.ID, models.RequirementStatusClosed))

	// Act
	result, total, err := s.repo.List(context.Background(), RequirementListOptions{
		Category: "ceramics",
		Status:   models.RequirementStatusOpen,
	})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), ceramics.ID, result[0].ID)
}

func (s *RequirementRepositoryTestSuite) TestList_Pagination() {
	// Arrange
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		s.createRequirement(s.buyer.ID, "req", "apparel", base.Add(time.Duration(i)*time.Minute))
	}

	// Act
	page, total, err := s.repo.List(context.Background(), RequirementListOptions{Limit: 2, Offset: 2})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), total)
	assert.Len(s.T(), page, 2)
}

func (s *RequirementRepositoryTestSuite) TestList_DefaultLimit() {
	// Arrange
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		s.createRequirement(s.buyer.ID, "req", "apparel", base.Add(time.Duration(i)*time.Second))
	}

	// Act - zero limit falls back to the default page size
	page, total, err := s.repo.List(context.Background(), RequirementListOptions{})

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(25), total)
	assert.Len(s.T(), page, 20)
}

// ==================== Update Tests ====================

func (s *RequirementRepositoryTestSuite) TestUpdate_PersistsChanges() {
	// Arrange
	requirement := s.createRequirement(s.buyer.ID, "100 oak tables", "furniture", time.Now())
	requirement.Title = "120 oak tables"
	requirement.Quantity = 120

	// Act
	err := s.repo.Update(context.Background(), requirement)

	// Assert
	assert.NoError(s.T(), err)

	reloaded, err := s.repo.GetByID(context.Background(), requirement.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "120 oak tables", reloaded.Title)
	assert.Equal(s.T(), 120, reloaded.Quantity)
}

// ==================== UpdateStatus Tests ====================

func (s *RequirementRepositoryTestSuite) TestUpdateStatus_ClosesRequirement() {
	// Arrange
	requirement := s.createRequirement(s.buyer.ID, "500 mugs", "ceramics", time.Now())

	// Act
	err := s.repo.UpdateStatus(context.Background(), requirement.ID, models.RequirementStatusClosed)

	// Assert
	assert.NoError(s.T(), err)

	reloaded, err := s.repo.GetByID(context.Background(), requirement.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RequirementStatusClosed, reloaded.Status)
}

func (s *RequirementRepositoryTestSuite) TestUpdateStatus_NotFound() {
	// Act
	err := s.repo.UpdateStatus(context.Background(), 99999, models.RequirementStatusClosed)

	// Assert
	assert.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}
