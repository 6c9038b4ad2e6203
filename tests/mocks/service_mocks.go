package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
)

// MockChatService implements the chat service slice consumed by the HTTP
// handlers and the websocket gateway
type MockChatService struct {
	mock.Mock
}

// EnsureConversation returns the caller/peer conversation, creating it when absent
func (m *MockChatService) EnsureConversation(ctx context.Context, callerID uint, callerRole string, peerID uint) (*models.Conversation, bool, error) {
	args := m.Called(ctx, callerID, callerRole, peerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Conversation), args.Bool(1), args.Error(2)
}

// SendMessage appends a message and refreshes the conversation summary
func (m *MockChatService) SendMessage(ctx context.Context, input services.SendMessageInput) (*services.SendResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

// MarkRead flips unread peer messages up to the resolved cutoff
func (m *MockChatService) MarkRead(ctx context.Context, readerID, conversationID uint, upToMessageID *uint) (*services.MarkReadResult, error) {
	args := m.Called(ctx, readerID, conversationID, upToMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MarkReadResult), args.Error(1)
}

// MockAuthService implements the OTP service slice consumed by the auth handler
type MockAuthService struct {
	mock.Mock
}

// RequestOTP issues and delivers a verification code
func (m *MockAuthService) RequestOTP(ctx context.Context, phone string) (string, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Error(1)
}

// VerifyOTP checks a code and signs the user in
func (m *MockAuthService) VerifyOTP(ctx context.Context, phone, code, role, displayName string) (*services.VerifyResult, error) {
	args := m.Called(ctx, phone, code, role, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VerifyResult), args.Error(1)
}

// Refresh reissues a token pair from a refresh token
func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.VerifyResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VerifyResult), args.Error(1)
}

// MockDesignService implements the design service slice consumed by the design handler
type MockDesignService struct {
	mock.Mock
}

// Generate produces a design image for a prompt and persists the row
func (m *MockDesignService) Generate(ctx context.Context, buyerID uint, prompt string) (*models.Design, error) {
	args := m.Called(ctx, buyerID, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Design), args.Error(1)
}

// List pages the caller's designs
func (m *MockDesignService) List(ctx context.Context, buyerID uint, limit, offset int) ([]models.Design, int64, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Design), args.Get(1).(int64), args.Error(2)
}

// Get retrieves one design, owner only
func (m *MockDesignService) Get(ctx context.Context, callerID, designID uint) (*models.Design, error) {
	args := m.Called(ctx, callerID, designID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Design), args.Error(1)
}

// MockBroadcaster implements the chat event broadcaster consumed by the
// message handler
type MockBroadcaster struct {
	mock.Mock
}

// MessageCreated pushes a stored message to both participants' connections
func (m *MockBroadcaster) MessageCreated(result *services.SendResult) {
	m.Called(result)
}

// ReadReceipt pushes a read receipt to both participants' connections
func (m *MockBroadcaster) ReadReceipt(result *services.MarkReadResult, readerID uint) {
	m.Called(result, readerID)
}

// MockNotifier implements the notification dispatcher slice consumed by the
// quote handler
type MockNotifier struct {
	mock.Mock
}

// QuoteReceived notifies a buyer about a new quote
func (m *MockNotifier) QuoteReceived(buyer *models.User, manufacturerName, requirementTitle string) {
	m.Called(buyer, manufacturerName, requirementTitle)
}

// QuoteAccepted notifies a manufacturer their quote was accepted
func (m *MockNotifier) QuoteAccepted(manufacturer *models.User, requirementTitle string) {
	m.Called(manufacturer, requirementTitle)
}
