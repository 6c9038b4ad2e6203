package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
)

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID retrieves a user by its ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetByPhone retrieves a user by phone number
func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetOrCreateByPhone returns the user for a phone, creating one when absent
func (m *MockUserRepository) GetOrCreateByPhone(ctx context.Context, phone, role, displayName string) (*models.User, bool, error) {
	args := m.Called(ctx, phone, role, displayName)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

// GetProfiles batch-fetches display profiles by user id
func (m *MockUserRepository) GetProfiles(ctx context.Context, ids []uint) (map[uint]models.DisplayProfile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.DisplayProfile), args.Error(1)
}

// Update updates an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockConversationRepository implements repository.ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create creates a new conversation
func (m *MockConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

// GetByID retrieves a conversation by its ID
func (m *MockConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

// GetByPair retrieves the conversation for a buyer/manufacturer pair
func (m *MockConversationRepository) GetByPair(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, error) {
	args := m.Called(ctx, buyerID, manufacturerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

// GetOrCreate returns the pair's conversation, creating it when absent
func (m *MockConversationRepository) GetOrCreate(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, bool, error) {
	args := m.Called(ctx, buyerID, manufacturerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Conversation), args.Bool(1), args.Error(2)
}

// ListForUser lists enriched conversations for a participant
func (m *MockConversationRepository) ListForUser(ctx context.Context, userID uint, role string, opts repository.ConversationListOptions) ([]models.ConversationListItem, error) {
	args := m.Called(ctx, userID, role, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationListItem), args.Error(1)
}

// UpdateSummary refreshes the denormalized last-message snapshot
func (m *MockConversationRepository) UpdateSummary(ctx context.Context, id uint, text string, at time.Time) error {
	args := m.Called(ctx, id, text, at)
	return args.Error(0)
}

// SetArchived toggles the archived flag
func (m *MockConversationRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	args := m.Called(ctx, id, archived)
	return args.Error(0)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// CreateAttachments bulk-inserts attachments for a message
func (m *MockMessageRepository) CreateAttachments(ctx context.Context, messageID uint, attachments []models.Attachment) error {
	args := m.Called(ctx, messageID, attachments)
	return args.Error(0)
}

// CreateWithAttachments creates a message with its attachments in a transaction
func (m *MockMessageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	args := m.Called(ctx, message, attachments)
	return args.Error(0)
}

// GetByID retrieves a message by its ID with preloaded attachments
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListByConversation pages a conversation's messages
func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID uint, opts repository.MessageListOptions) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MarkRead flips unread peer messages created before the cutoff
func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uint, upTo time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, readerID, upTo)
	return args.Get(0).(int64), args.Error(1)
}

// CountUnread counts unread peer messages in a conversation
func (m *MockMessageRepository) CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRequirementRepository implements repository.RequirementRepository
type MockRequirementRepository struct {
	mock.Mock
}

// Create creates a new requirement
func (m *MockRequirementRepository) Create(ctx context.Context, requirement *models.Requirement) error {
	args := m.Called(ctx, requirement)
	return args.Error(0)
}

// GetByID retrieves a requirement by its ID
func (m *MockRequirementRepository) GetByID(ctx context.Context, id uint) (*models.Requirement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Requirement), args.Error(1)
}

// List retrieves requirements with filters and pagination
func (m *MockRequirementRepository) List(ctx context.Context, opts repository.RequirementListOptions) ([]models.Requirement, int64, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Requirement), args.Get(1).(int64), args.Error(2)
}

// Update saves changes to an existing requirement
func (m *MockRequirementRepository) Update(ctx context.Context, requirement *models.Requirement) error {
	args := m.Called(ctx, requirement)
	return args.Error(0)
}

// UpdateStatus updates the status of a requirement
func (m *MockRequirementRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockQuoteRepository implements repository.QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

// Create creates a new quote
func (m *MockQuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

// GetByID retrieves a quote by its ID
func (m *MockQuoteRepository) GetByID(ctx context.Context, id uint) (*models.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}

// ListByRequirement lists quotes submitted against a requirement
func (m *MockQuoteRepository) ListByRequirement(ctx context.Context, requirementID uint) ([]models.Quote, error) {
	args := m.Called(ctx, requirementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quote), args.Error(1)
}

// Accept accepts a quote, rejecting pending siblings and closing the requirement
func (m *MockQuoteRepository) Accept(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// UpdateStatus updates the status of a quote
func (m *MockQuoteRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockDesignRepository implements repository.DesignRepository
type MockDesignRepository struct {
	mock.Mock
}

// Create creates a new design
func (m *MockDesignRepository) Create(ctx context.Context, design *models.Design) error {
	args := m.Called(ctx, design)
	return args.Error(0)
}

// GetByID retrieves a design by its ID
func (m *MockDesignRepository) GetByID(ctx context.Context, id uint) (*models.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Design), args.Error(1)
}

// ListByBuyer lists a buyer's designs with pagination
func (m *MockDesignRepository) ListByBuyer(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Design), args.Get(1).(int64), args.Error(2)
}
