package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockConversationRepository is a mock implementation of ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetByPair(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, error) {
	args := m.Called(ctx, buyerID, manufacturerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetOrCreate(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, bool, error) {
	args := m.Called(ctx, buyerID, manufacturerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Conversation), args.Bool(1), args.Error(2)
}

func (m *MockConversationRepository) ListForUser(ctx context.Context, userID uint, role string, opts repository.ConversationListOptions) ([]models.ConversationListItem, error) {
	args := m.Called(ctx, userID, role, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationListItem), args.Error(1)
}

func (m *MockConversationRepository) UpdateSummary(ctx context.Context, id uint, text string, at time.Time) error {
	args := m.Called(ctx, id, text, at)
	return args.Error(0)
}

func (m *MockConversationRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	args := m.Called(ctx, id, archived)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) CreateAttachments(ctx context.Context, messageID uint, attachments []models.Attachment) error {
	args := m.Called(ctx, messageID, attachments)
	return args.Error(0)
}

func (m *MockMessageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	args := m.Called(ctx, message, attachments)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID uint, opts repository.MessageListOptions) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uint, upTo time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, readerID, upTo)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, conversationID, readerID uint) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetOrCreateByPhone(ctx context.Context, phone, role, displayName string) (*models.User, bool, error) {
	args := m.Called(ctx, phone, role, displayName)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) GetProfiles(ctx context.Context, ids []uint) (map[uint]models.DisplayProfile, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.DisplayProfile), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newChatServiceForTest() (*ChatService, *MockConversationRepository, *MockMessageRepository, *MockUserRepository) {
	convs := new(MockConversationRepository)
	msgs := new(MockMessageRepository)
	users := new(MockUserRepository)
	return NewChatService(convs, msgs, users, discardLogger()), convs, msgs, users
}

func TestEnsureConversation_CreatesPairForBuyer(t *testing.T) {
	service, convs, _, users := newChatServiceForTest()

	users.On("GetByID", mock.Anything, uint(2)).
		Return(&models.User{ID: 2, Role: models.RoleManufacturer}, nil)
	convs.On("GetOrCreate", mock.Anything, uint(1), uint(2)).
		Return(&models.Conversation{ID: 9, BuyerID: 1, ManufacturerID: 2}, true, nil)

	conv, created, err := service.EnsureConversation(context.Background(), 1, models.RoleBuyer, 2)

	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(9), conv.ID)
	convs.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestEnsureConversation_ManufacturerCallerSwapsSides(t *testing.T) {
	service, convs, _, users := newChatServiceForTest()

	users.On("GetByID", mock.Anything, uint(3)).
		Return(&models.User{ID: 3, Role: models.RoleBuyer}, nil)
	// The buyer always lands on the buyer side regardless of who initiated.
	convs.On("GetOrCreate", mock.Anything, uint(3), uint(5)).
		Return(&models.Conversation{ID: 4, BuyerID: 3, ManufacturerID: 5}, false, nil)

	conv, created, err := service.EnsureConversation(context.Background(), 5, models.RoleManufacturer, 3)

	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(3), conv.BuyerID)
	assert.Equal(t, uint(5), conv.ManufacturerID)
	convs.AssertExpectations(t)
}

func TestEnsureConversation_RejectsSelfPeer(t *testing.T) {
	service, convs, _, users := newChatServiceForTest()

	_, _, err := service.EnsureConversation(context.Background(), 1, models.RoleBuyer, 1)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	convs.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureConversation_PeerMissing(t *testing.T) {
	service, _, _, users := newChatServiceForTest()

	users.On("GetByID", mock.Anything, uint(99)).Return(nil, repository.ErrNotFound)

	_, _, err := service.EnsureConversation(context.Background(), 1, models.RoleBuyer, 99)

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestEnsureConversation_RejectsSameRolePair(t *testing.T) {
	service, convs, _, users := newChatServiceForTest()

	users.On("GetByID", mock.Anything, uint(2)).
		Return(&models.User{ID: 2, Role: models.RoleBuyer}, nil)

	_, _, err := service.EnsureConversation(context.Background(), 1, models.RoleBuyer, 2)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	convs.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_AppendsAndUpdatesSummary(t *testing.T) {
	service, convs, msgs, users := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	sender := &models.User{ID: 1, Role: models.RoleBuyer, DisplayName: "Dewi"}
	peer := &models.User{ID: 2, Role: models.RoleManufacturer, DisplayName: "Atelier Jaya"}
	createdAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil).Once()
	users.On("GetByID", mock.Anything, uint(1)).Return(sender, nil)
	msgs.On("CreateWithAttachments", mock.Anything, mock.AnythingOfType("*models.Message"), mock.Anything).
		Run(func(args mock.Arguments) {
			message := args.Get(1).(*models.Message)
			message.ID = 42
			message.CreatedAt = createdAt
		}).
		Return(nil)
	convs.On("UpdateSummary", mock.Anything, uint(7), "Hello from the shop", createdAt).Return(nil)

	refreshed := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2, LastMessageAt: &createdAt}
	convs.On("GetByID", mock.Anything, uint(7)).Return(refreshed, nil).Once()
	users.On("GetByID", mock.Anything, uint(2)).Return(peer, nil)

	result, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       1,
		Body:           "  Hello from the shop  ",
		ClientTempID:   "tmp-123",
	})

	assert.NoError(t, err)
	assert.Equal(t, uint(42), result.Message.ID)
	assert.Equal(t, "Hello from the shop", result.Message.Body)
	assert.Equal(t, models.RoleBuyer, result.Message.SenderRole)
	assert.Equal(t, "tmp-123", result.Message.ClientTempID)
	assert.Same(t, refreshed, result.Conversation)
	assert.Equal(t, uint(1), result.Sender.ID)
	assert.Equal(t, uint(2), result.Peer.ID)
	convs.AssertExpectations(t)
	msgs.AssertExpectations(t)
}

func TestSendMessage_PhotoSummaryForImageAttachment(t *testing.T) {
	service, convs, msgs, users := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	users.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Role: models.RoleBuyer}, nil)
	users.On("GetByID", mock.Anything, uint(2)).Return(&models.User{ID: 2, Role: models.RoleManufacturer}, nil)
	msgs.On("CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	convs.On("UpdateSummary", mock.Anything, uint(7), "📎 Photo", mock.Anything).Return(nil)

	result, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       1,
		Attachments: []AttachmentInput{
			{URL: "https://files.test/ab/cd/abcd.jpg", MimeType: "image/jpeg", SizeBytes: 2048},
		},
	})

	assert.NoError(t, err)
	assert.Empty(t, result.Message.Body)
	assert.Len(t, result.Message.Attachments, 1)
	convs.AssertExpectations(t)
}

func TestSendMessage_SummaryFailureDoesNotFailSend(t *testing.T) {
	service, convs, msgs, users := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil).Once()
	users.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Role: models.RoleBuyer}, nil)
	users.On("GetByID", mock.Anything, uint(2)).Return(&models.User{ID: 2, Role: models.RoleManufacturer}, nil)
	msgs.On("CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	convs.On("UpdateSummary", mock.Anything, uint(7), mock.Anything, mock.Anything).
		Return(errors.New("deadlock"))
	// Refresh fails too; the pre-insert snapshot is used instead.
	convs.On("GetByID", mock.Anything, uint(7)).Return(nil, errors.New("connection reset")).Once()

	result, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       1,
		Body:           "still goes through",
	})

	assert.NoError(t, err)
	assert.Same(t, conv, result.Conversation)
	assert.Equal(t, "still goes through", result.Message.Body)
}

func TestSendMessage_RejectsEmptyAfterSanitization(t *testing.T) {
	service, convs, msgs, users := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	users.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Role: models.RoleBuyer}, nil)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       1,
		Body:           "  <p> </p>  ",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	msgs.AssertNotCalled(t, "CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_RejectsNonParticipant(t *testing.T) {
	service, convs, msgs, _ := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       9,
		Body:           "should not land",
	})

	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
	msgs.AssertNotCalled(t, "CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_ConversationMissing(t *testing.T) {
	service, convs, _, _ := newChatServiceForTest()

	convs.On("GetByID", mock.Anything, uint(404)).Return(nil, repository.ErrNotFound)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 404,
		SenderID:       1,
		Body:           "hello",
	})

	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
}

func TestSendMessage_AttachmentNeedsURL(t *testing.T) {
	service, convs, msgs, users := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	users.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Role: models.RoleBuyer}, nil)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 7,
		SenderID:       1,
		Attachments:    []AttachmentInput{{MimeType: "image/png"}},
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	msgs.AssertNotCalled(t, "CreateWithAttachments", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead_CutoffFromMessage(t *testing.T) {
	service, convs, msgs, _ := newChatServiceForTest()

	cutoff := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	msgs.On("GetByID", mock.Anything, uint(42)).
		Return(&models.Message{ID: 42, ConversationID: 7, CreatedAt: cutoff}, nil)
	// The cut-off message's own timestamp is the boundary; MarkRead applies
	// strictly-before so that message itself stays unread.
	msgs.On("MarkRead", mock.Anything, uint(7), uint(2), cutoff).Return(int64(3), nil)

	upTo := uint(42)
	result, err := service.MarkRead(context.Background(), 2, 7, &upTo)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.Updated)
	assert.Equal(t, cutoff, result.At)
	assert.Equal(t, &upTo, result.UpToMessageID)
	msgs.AssertExpectations(t)
}

func TestMarkRead_DefaultsToNow(t *testing.T) {
	service, convs, msgs, _ := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	msgs.On("MarkRead", mock.Anything, uint(7), uint(2), mock.MatchedBy(func(at time.Time) bool {
		return time.Since(at) < 2*time.Second
	})).Return(int64(0), nil)

	result, err := service.MarkRead(context.Background(), 2, 7, nil)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), result.Updated)
	assert.Nil(t, result.UpToMessageID)
	msgs.AssertExpectations(t)
}

func TestMarkRead_RejectsMessageFromOtherConversation(t *testing.T) {
	service, convs, msgs, _ := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)
	msgs.On("GetByID", mock.Anything, uint(42)).
		Return(&models.Message{ID: 42, ConversationID: 8}, nil)

	upTo := uint(42)
	_, err := service.MarkRead(context.Background(), 2, 7, &upTo)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	msgs.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead_RejectsNonParticipant(t *testing.T) {
	service, convs, _, _ := newChatServiceForTest()

	conv := &models.Conversation{ID: 7, BuyerID: 1, ManufacturerID: 2}
	convs.On("GetByID", mock.Anything, uint(7)).Return(conv, nil)

	_, err := service.MarkRead(context.Background(), 9, 7, nil)

	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)
}

func TestDeriveSummary(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		attachments []models.Attachment
		want        string
	}{
		{"body wins over attachments", "see photo", []models.Attachment{{MimeType: "image/png"}}, "see photo"},
		{"image", "", []models.Attachment{{MimeType: "image/jpeg"}}, "📎 Photo"},
		{"video", "", []models.Attachment{{MimeType: "video/mp4"}}, "📎 Video"},
		{"voice", "", []models.Attachment{{MimeType: "audio/ogg"}}, "🎤 Voice message"},
		{"document", "", []models.Attachment{{MimeType: "application/pdf"}}, "📎 Attachment"},
		{"unknown mime", "", []models.Attachment{{MimeType: ""}}, "📎 Attachment"},
		{"nothing", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveSummary(tt.body, tt.attachments))
		})
	}
}

func TestDeriveSummary_TruncatesLongBody(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}

	got := deriveSummary(long, nil)

	assert.Len(t, []rune(got), summaryMaxLen)
	assert.Equal(t, "...", got[len(got)-3:])
}
