// Package services contains the domain flows between the transport layers
// (HTTP handlers, websocket gateway) and the repositories.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	"github.com/craftlinkhq/craftlink-backend/internal/metrics"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// summaryMaxLen caps the denormalized last-message preview.
const summaryMaxLen = 255

// Attachment summary labels, keyed by mime type class.
const (
	summaryPhoto      = "📎 Photo"
	summaryVideo      = "📎 Video"
	summaryVoice      = "🎤 Voice message"
	summaryAttachment = "📎 Attachment"
)

// ChatService implements the conversation and message flows shared by the
// HTTP handlers and the realtime gateway.
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	logger        *slog.Logger
}

// NewChatService creates a ChatService over the given repositories.
func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		logger:        logger,
	}
}

// AttachmentInput carries upload metadata for one message attachment.
type AttachmentInput struct {
	URL         string  `json:"url"`
	MimeType    string  `json:"mimeType"`
	SizeBytes   int64   `json:"sizeBytes"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	DurationSec float64 `json:"durationSec"`
}

// SendMessageInput is one message append request, from either transport.
type SendMessageInput struct {
	ConversationID uint
	SenderID       uint
	Body           string
	ClientTempID   string
	RequirementID  *uint
	DesignID       *uint
	Attachments    []AttachmentInput
}

// SendResult is the hydrated outcome of a message append: the stored
// message with attachments, the refreshed conversation, and both
// participants for broadcast and notification targeting.
type SendResult struct {
	Message      *models.Message
	Conversation *models.Conversation
	Sender       *models.User
	Peer         *models.User
}

// Preview returns the one-line preview of the sent message, matching the
// conversation summary derivation. Used for offline-peer notifications.
func (r *SendResult) Preview() string {
	if r == nil || r.Message == nil {
		return ""
	}
	return deriveSummary(r.Message.Body, r.Message.Attachments)
}

// MarkReadResult reports a read-receipt application.
type MarkReadResult struct {
	Conversation  *models.Conversation
	ReaderID      uint
	UpToMessageID *uint
	At            time.Time
	Updated       int64
}

// EnsureConversation returns the unique conversation between the caller and
// the peer, creating it when absent. The caller's role decides which side
// the peer must be on; pairing two users of the same role is invalid.
func (s *ChatService) EnsureConversation(ctx context.Context, callerID uint, callerRole string, peerID uint) (*models.Conversation, bool, error) {
	if peerID == 0 || peerID == callerID {
		return nil, false, fmt.Errorf("invalid peer %d: %w", peerID, apperrors.ErrInvalidInput)
	}

	peer, err := s.users.GetByID(ctx, peerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, false, apperrors.ErrUserNotFound
		}
		return nil, false, err
	}

	var buyerID, manufacturerID uint
	switch {
	case callerRole == models.RoleBuyer && peer.Role == models.RoleManufacturer:
		buyerID, manufacturerID = callerID, peerID
	case callerRole == models.RoleManufacturer && peer.Role == models.RoleBuyer:
		buyerID, manufacturerID = peerID, callerID
	default:
		return nil, false, fmt.Errorf("conversations pair a buyer with a manufacturer: %w", apperrors.ErrInvalidInput)
	}

	return s.conversations.GetOrCreate(ctx, buyerID, manufacturerID)
}

// SendMessage validates, sanitizes, and appends one message, then updates
// the conversation summary. The summary update and the conversation
// re-fetch are best-effort: once the message row is committed, later
// failures are logged and never roll it back.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendResult, error) {
	if input.ConversationID == 0 {
		return nil, fmt.Errorf("conversation id is required: %w", apperrors.ErrInvalidInput)
	}

	conv, err := s.conversations.GetByID(ctx, input.ConversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(input.SenderID) {
		return nil, apperrors.ErrNotParticipant
	}

	sender, err := s.users.GetByID(ctx, input.SenderID)
	if err != nil {
		return nil, err
	}

	body := validator.SanitizeMessageBody(input.Body)
	if body == "" && len(input.Attachments) == 0 {
		return nil, fmt.Errorf("message needs a body or attachments: %w", apperrors.ErrInvalidInput)
	}

	message := &models.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		SenderRole:     sender.Role,
		Body:           body,
		ClientTempID:   validator.SanitizeString(input.ClientTempID, 64),
		RequirementID:  input.RequirementID,
		DesignID:       input.DesignID,
	}

	attachments := make([]models.Attachment, 0, len(input.Attachments))
	for _, att := range input.Attachments {
		if att.URL == "" {
			return nil, fmt.Errorf("attachment url is required: %w", apperrors.ErrInvalidInput)
		}
		attachments = append(attachments, models.Attachment{
			URL:         validator.SanitizeString(att.URL, 500),
			MimeType:    validator.SanitizeString(att.MimeType, 100),
			SizeBytes:   att.SizeBytes,
			Width:       att.Width,
			Height:      att.Height,
			DurationSec: att.DurationSec,
		})
	}

	if err := s.messages.CreateWithAttachments(ctx, message, attachments); err != nil {
		return nil, err
	}
	message.Attachments = attachments
	metrics.MessageSent()

	// The message is durable from here on. Summary maintenance is a
	// separate write: a failure leaves a stale preview that self-heals on
	// the next message, so it is logged rather than surfaced.
	summary := deriveSummary(body, attachments)
	if err := s.conversations.UpdateSummary(ctx, conv.ID, summary, message.CreatedAt); err != nil {
		s.logger.Warn("conversation summary update failed",
			slog.Uint64("conversation_id", uint64(conv.ID)),
			slog.Uint64("message_id", uint64(message.ID)),
			slog.Any("error", err))
	}

	// Broadcast payloads carry the refreshed conversation; fall back to the
	// pre-insert snapshot if the re-fetch fails.
	refreshed, err := s.conversations.GetByID(ctx, conv.ID)
	if err != nil {
		s.logger.Warn("conversation refresh failed after send",
			slog.Uint64("conversation_id", uint64(conv.ID)),
			slog.Any("error", err))
		refreshed = conv
	}

	result := &SendResult{
		Message:      message,
		Conversation: refreshed,
		Sender:       sender,
	}

	peer, err := s.users.GetByID(ctx, conv.PeerID(sender.ID))
	if err != nil {
		s.logger.Warn("peer lookup failed after send",
			slog.Uint64("conversation_id", uint64(conv.ID)),
			slog.Any("error", err))
	} else {
		result.Peer = peer
	}

	return result, nil
}

// MarkRead flips unread peer messages strictly before the cut-off. The
// cut-off is the creation time of upToMessageID when given (that message
// itself stays unread), otherwise now. Idempotent.
func (s *ChatService) MarkRead(ctx context.Context, readerID, conversationID uint, upToMessageID *uint) (*MarkReadResult, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(readerID) {
		return nil, apperrors.ErrNotParticipant
	}

	cutoff := time.Now().UTC()
	if upToMessageID != nil {
		message, err := s.messages.GetByID(ctx, *upToMessageID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.ErrMessageNotFound
			}
			return nil, err
		}
		if message.ConversationID != conversationID {
			return nil, fmt.Errorf("message %d is not in conversation %d: %w",
				*upToMessageID, conversationID, apperrors.ErrInvalidInput)
		}
		cutoff = message.CreatedAt
	}

	updated, err := s.messages.MarkRead(ctx, conversationID, readerID, cutoff)
	if err != nil {
		return nil, err
	}

	return &MarkReadResult{
		Conversation:  conv,
		ReaderID:      readerID,
		UpToMessageID: upToMessageID,
		At:            cutoff,
		Updated:       updated,
	}, nil
}

// deriveSummary produces the denormalized conversation preview for a
// message: the snippet of the body when present, otherwise a label for
// the first attachment's media class.
func deriveSummary(body string, attachments []models.Attachment) string {
	if body != "" {
		return validator.Snippet(body, summaryMaxLen)
	}
	if len(attachments) == 0 {
		return ""
	}

	mime := strings.ToLower(attachments[0].MimeType)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return summaryPhoto
	case strings.HasPrefix(mime, "video/"):
		return summaryVideo
	case strings.HasPrefix(mime, "audio/"):
		return summaryVoice
	default:
		return summaryAttachment
	}
}
