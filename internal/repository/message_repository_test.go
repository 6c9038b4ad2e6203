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

// MessageRepositoryTestSuite is the test suite for MessageRepository
type MessageRepositoryTestSuite struct {
	suite.Suite
	db           *gorm.DB
	repo         MessageRepository
	buyer        *models.User
	manufacturer *models.User
	conversation *models.Conversation
}

// SetupSuite runs once before all tests
func (s *MessageRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	// Enable foreign keys for SQLite (required for cascade delete)
	db.Exec("PRAGMA foreign_keys = ON")

	// Auto-migrate models
	err = db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.Attachment{}, &models.Requirement{}, &models.Design{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewMessageRepository(db)
}

// TearDownSuite runs once after all tests
func (s *MessageRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test - clean up data and create a test conversation
func (s *MessageRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM attachments")
	s.db.Exec("DELETE FROM messages")
	s.db.Exec("DELETE FROM conversations")
	s.db.Exec("DELETE FROM users")

	s.buyer = &models.User{Phone: "+15550001001", Role: models.RoleBuyer, DisplayName: "Alice Chen"}
	require.NoError(s.T(), s.db.Create(s.buyer).Error)
	s.manufacturer = &models.User{Phone: "+15550001002", Role: models.RoleManufacturer, DisplayName: "Bob's Workshop"}
	require.NoError(s.T(), s.db.Create(s.manufacturer).Error)

	s.conversation = &models.Conversation{BuyerID: s.buyer.ID, ManufacturerID: s.manufacturer.ID}
	require.NoError(s.T(), s.db.Create(s.conversation).Error)
}

// TestMessageRepositoryTestSuite runs the test suite
func TestMessageRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MessageRepositoryTestSuite))
}

func (s *MessageRepositoryTestSuite) createMessage(senderID uint, senderRole, body string, at time.Time) *models.Message {
	msg := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Body:           body,
		CreatedAt:      at,
	}
	require.NoError(s.T(), s.db.Create(msg).Error)
	return msg
}

// ==================== Create Tests ====================

func (s *MessageRepositoryTestSuite) TestCreate_Success() {
	// Arrange
	message := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.buyer.ID,
		SenderRole:     models.RoleBuyer,
		Body:           "Can you make 500 units?",
	}

	// Act
	err := s.repo.Create(context.Background(), message)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)
	assert.NotZero(s.T(), message.CreatedAt)
	assert.False(s.T(), message.IsRead)
}

// ==================== CreateAttachments Tests ====================

func (s *MessageRepositoryTestSuite) TestCreateAttachments_Success() {
	// Arrange
	message := s.createMessage(s.buyer.ID, models.RoleBuyer, "photos attached", time.Now())
	attachments := []models.Attachment{
		{URL: "/files/ab/cd/one.jpg", MimeType: "image/jpeg", SizeBytes: 1024},
		{URL: "/files/ef/gh/two.jpg", MimeType: "image/jpeg", SizeBytes: 2048},
	}

	// Act
	err := s.repo.CreateAttachments(context.Background(), message.ID, attachments)

	// Assert
	assert.NoError(s.T(), err)

	stored, err := s.repo.GetByID(context.Background(), message.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), stored.Attachments, 2)
	for _, a := range stored.Attachments {
		assert.Equal(s.T(), message.ID, a.MessageID)
	}
}

func (s *MessageRepositoryTestSuite) TestCreateAttachments_EmptySlice_NoOp() {
	// Arrange
	message := s.createMessage(s.buyer.ID, models.RoleBuyer, "no attachments", time.Now())

	// Act
	err := s.repo.CreateAttachments(context.Background(), message.ID, nil)

	// Assert
	assert.NoError(s.T(), err)

	var count int64
	s.db.Model(&models.Attachment{}).Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

// ==================== CreateWithAttachments Tests ====================

func (s *MessageRepositoryTestSuite) TestCreateWithAttachments_Success() {
	// Arrange
	message := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.buyer.ID,
		SenderRole:     models.RoleBuyer,
		Body:           "",
	}
	attachments := []models.Attachment{
		{URL: "/files/ab/cd/sketch.png", MimeType: "image/png", SizeBytes: 4096, Width: 800, Height: 600},
	}

	// Act
	err := s.repo.CreateWithAttachments(context.Background(), message, attachments)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)
	assert.Equal(s.T(), message.ID, attachments[0].MessageID)
	assert.NotZero(s.T(), attachments[0].ID)
}

func (s *MessageRepositoryTestSuite) TestCreateWithAttachments_NoAttachments() {
	// Arrange
	message := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.manufacturer.ID,
		SenderRole:     models.RoleManufacturer,
		Body:           "Yes, 500 units is fine",
	}

	// Act
	err := s.repo.CreateWithAttachments(context.Background(), message, nil)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotZero(s.T(), message.ID)
}

// ==================== GetByID Tests ====================

func (s *MessageRepositoryTestSuite) TestGetByID_Found_PreloadsAttachments() {
	// Arrange
	message := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.buyer.ID,
		SenderRole:     models.RoleBuyer,
		Body:           "see photo",
	}
	attachments := []models.Attachment{
		{URL: "/files/ab/cd/photo.jpg", MimeType: "image/jpeg", SizeBytes: 512},
	}
	err := s.repo.CreateWithAttachments(context.Background(), message, attachments)
	require.NoError(s.T(), err)

	// Act
	result, err := s.repo.GetByID(context.Background(), message.ID)

	// Assert
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), result)
	assert.Equal(s.T(), "see photo", result.Body)
	require.Len(s.T(), result.Attachments, 1)
	assert.Equal(s.T(), "image/jpeg", result.Attachments[0].MimeType)
}

func (s *MessageRepositoryTestSuite) TestGetByID_NotFound() {
	// Act
	result, err := s.repo.GetByID(context.Background(), 99999)

	// Assert
	assert.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.Nil(s.T(), result)
}

// ==================== ListByConversation Tests ====================

func (s *MessageRepositoryTestSuite) TestListByConversation_ChronologicalOrder() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	first := s.createMessage(s.buyer.ID, models.RoleBuyer, "first", base)
	second := s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "second", base.Add(time.Minute))
	third := s.createMessage(s.buyer.ID, models.RoleBuyer, "third", base.Add(2*time.Minute))

	// Act
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID, MessageListOptions{Limit: 10})

	// Assert - oldest first even though the query walks newest-first
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 3)
	assert.Equal(s.T(), first.ID, result[0].ID)
	assert.Equal(s.T(), second.ID, result[1].ID)
	assert.Equal(s.T(), third.ID, result[2].ID)
}

func (s *MessageRepositoryTestSuite) TestListByConversation_LimitKeepsNewest() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	s.createMessage(s.buyer.ID, models.RoleBuyer, "dropped", base)
	second := s.createMessage(s.buyer.ID, models.RoleBuyer, "kept old", base.Add(time.Minute))
	third := s.createMessage(s.buyer.ID, models.RoleBuyer, "kept new", base.Add(2*time.Minute))

	// Act
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID, MessageListOptions{Limit: 2})

	// Assert - the cap trims the oldest, not the newest
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 2)
	assert.Equal(s.T(), second.ID, result[0].ID)
	assert.Equal(s.T(), third.ID, result[1].ID)
}

func (s *MessageRepositoryTestSuite) TestListByConversation_BeforeCursor() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	first := s.createMessage(s.buyer.ID, models.RoleBuyer, "first", base)
	second := s.createMessage(s.buyer.ID, models.RoleBuyer, "second", base.Add(time.Minute))
	s.createMessage(s.buyer.ID, models.RoleBuyer, "third", base.Add(2*time.Minute))

	// Act - page strictly before the third message
	before := base.Add(2 * time.Minute)
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID, MessageListOptions{Limit: 10, Before: &before})

	// Assert
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 2)
	assert.Equal(s.T(), first.ID, result[0].ID)
	assert.Equal(s.T(), second.ID, result[1].ID)
}

func (s *MessageRepositoryTestSuite) TestListByConversation_FilterByRequirement() {
	// Arrange
	requirement := &models.Requirement{BuyerID: s.buyer.ID, Title: "500 denim jackets", Category: "apparel"}
	require.NoError(s.T(), s.db.Create(requirement).Error)

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	tagged := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.buyer.ID,
		SenderRole:     models.RoleBuyer,
		Body:           "about the jackets",
		RequirementID:  &requirement.ID,
		CreatedAt:      base,
	}
	require.NoError(s.T(), s.db.Create(tagged).Error)
	s.createMessage(s.buyer.ID, models.RoleBuyer, "unrelated chat", base.Add(time.Minute))

	// Act
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID,
		MessageListOptions{Limit: 10, RequirementID: &requirement.ID})

	// Assert
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 1)
	assert.Equal(s.T(), tagged.ID, result[0].ID)
}

func (s *MessageRepositoryTestSuite) TestListByConversation_PreloadsAttachments() {
	// Arrange
	message := &models.Message{
		ConversationID: s.conversation.ID,
		SenderID:       s.buyer.ID,
		SenderRole:     models.RoleBuyer,
		Body:           "",
	}
	err := s.repo.CreateWithAttachments(context.Background(), message, []models.Attachment{
		{URL: "/files/ab/cd/pic.jpg", MimeType: "image/jpeg", SizeBytes: 100},
	})
	require.NoError(s.T(), err)

	// Act
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID, MessageListOptions{Limit: 10})

	// Assert
	assert.NoError(s.T(), err)
	require.Len(s.T(), result, 1)
	assert.Len(s.T(), result[0].Attachments, 1)
}

func (s *MessageRepositoryTestSuite) TestListByConversation_Empty() {
	// Act
	result, err := s.repo.ListByConversation(context.Background(), s.conversation.ID, MessageListOptions{Limit: 10})

	// Assert
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), result)
}

// ==================== MarkRead Tests ====================

func (s *MessageRepositoryTestSuite) TestMarkRead_FlipsPeerMessagesOnly() {
	// Arrange - two from the peer, one from the reader
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	peer1 := s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "one", base)
	peer2 := s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "two", base.Add(time.Minute))
	own := s.createMessage(s.buyer.ID, models.RoleBuyer, "mine", base.Add(2*time.Minute))

	// Act - buyer reads everything up to now
	updated, err := s.repo.MarkRead(context.Background(), s.conversation.ID, s.buyer.ID, time.Now())

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), updated)

	for _, id := range []uint{peer1.ID, peer2.ID} {
		msg, err := s.repo.GetByID(context.Background(), id)
		require.NoError(s.T(), err)
		assert.True(s.T(), msg.IsRead)
	}
	ownMsg, err := s.repo.GetByID(context.Background(), own.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), ownMsg.IsRead, "reader's own messages stay untouched")
}

func (s *MessageRepositoryTestSuite) TestMarkRead_RespectsUpToBoundary() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	older := s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "older", base)
	newer := s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "newer", base.Add(10*time.Minute))

	// Act - read boundary falls between the two
	updated, err := s.repo.MarkRead(context.Background(), s.conversation.ID, s.buyer.ID, base.Add(5*time.Minute))

	// Assert - strictly-before semantics
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), updated)

	olderMsg, _ := s.repo.GetByID(context.Background(), older.ID)
	assert.True(s.T(), olderMsg.IsRead)
	newerMsg, _ := s.repo.GetByID(context.Background(), newer.ID)
	assert.False(s.T(), newerMsg.IsRead)
}

func (s *MessageRepositoryTestSuite) TestMarkRead_Idempotent() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "hello", base)

	// Act
	first, err := s.repo.MarkRead(context.Background(), s.conversation.ID, s.buyer.ID, time.Now())
	require.NoError(s.T(), err)
	second, err := s.repo.MarkRead(context.Background(), s.conversation.ID, s.buyer.ID, time.Now())
	require.NoError(s.T(), err)

	// Assert - second pass finds nothing left to flip
	assert.Equal(s.T(), int64(1), first)
	assert.Equal(s.T(), int64(0), second)
}

func (s *MessageRepositoryTestSuite) TestMarkRead_NothingToUpdate() {
	// Act
	updated, err := s.repo.MarkRead(context.Background(), s.conversation.ID, s.buyer.ID, time.Now())

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), updated)
}

// ==================== CountUnread Tests ====================

func (s *MessageRepositoryTestSuite) TestCountUnread() {
	// Arrange
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "one", base)
	s.createMessage(s.manufacturer.ID, models.RoleManufacturer, "two", base.Add(time.Minute))
	s.createMessage(s.buyer.ID, models.RoleBuyer, "mine", base.Add(2*time.Minute))

	// Act
	count, err := s.repo.CountUnread(context.Background(), s.conversation.ID, s.buyer.ID)

	// Assert
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), count)
}
