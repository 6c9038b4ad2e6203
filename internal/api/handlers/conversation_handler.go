package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/middleware"
	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
)

// ChatBackend is the slice of the chat service the conversation and message
// handlers depend on. *services.ChatService provides it in production.
type ChatBackend interface {
	EnsureConversation(ctx context.Context, callerID uint, callerRole string, peerID uint) (*models.Conversation, bool, error)
	SendMessage(ctx context.Context, input services.SendMessageInput) (*services.SendResult, error)
	MarkRead(ctx context.Context, readerID, conversationID uint, upToMessageID *uint) (*services.MarkReadResult, error)
}

// Broadcaster pushes chat events to connected websocket clients so REST
// writes reach open tabs the same way socket writes do.
// *websocket.Gateway provides it in production; nil disables broadcasting.
type Broadcaster interface {
	MessageCreated(result *services.SendResult)
	ReadReceipt(result *services.MarkReadResult, readerID uint)
}

// ConversationHandler handles conversation-related HTTP requests
type ConversationHandler struct {
	chat          ChatBackend
	conversations repository.ConversationRepository
	broadcast     Broadcaster
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(chat ChatBackend, conversations repository.ConversationRepository, broadcast Broadcaster) *ConversationHandler {
	return &ConversationHandler{
		chat:          chat,
		conversations: conversations,
		broadcast:     broadcast,
	}
}

// CreateConversationRequest opens (or returns) the conversation with a peer
type CreateConversationRequest struct {
	PeerID uint `json:"peerId"`
}

// ArchiveConversationRequest toggles the caller's archived flag
type ArchiveConversationRequest struct {
	IsArchived *bool `json:"isArchived"`
}

// MarkReadRequest acknowledges peer messages up to a message, or all of
// them when upToMessageId is omitted
type MarkReadRequest struct {
	UpToMessageID *uint `json:"upToMessageId"`
}

// MarkReadResponse reports how many messages the acknowledgement flipped
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

// List handles GET /api/v1/conversations
//
// Pages by keyset on last_message_at: the before query param is the
// next_cursor of the previous page. Conversations that never received a
// message sort last and end the cursor chain.
func (h *ConversationHandler) List(c echo.Context) error {
	opts := repository.ConversationListOptions{
		Search: c.QueryParam("search"),
		Limit:  20,
	}

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	if b := c.QueryParam("before"); b != "" {
		before, err := time.Parse(time.RFC3339Nano, b)
		if err != nil {
			return response.BadRequest(c, "invalid before cursor")
		}
		opts.Before = &before
	}

	items, err := h.conversations.ListForUser(c.Request().Context(), middleware.UserID(c), middleware.UserRole(c), opts)
	if err != nil {
		return response.InternalError(c, "failed to list conversations")
	}

	nextCursor := ""
	hasMore := false
	if len(items) == opts.Limit {
		// A full page ending in a never-messaged conversation has no
		// later keyset position, so the chain stops there.
		if last := items[len(items)-1].LastMessageAt; last != nil {
			nextCursor = last.UTC().Format(time.RFC3339Nano)
			hasMore = true
		}
	}

	return response.Cursor(c, items, nextCursor, hasMore)
}

// Create handles POST /api/v1/conversations
//
// Idempotent: returns 201 with the new conversation on first contact and
// 200 with the existing one on every later call for the same pair.
func (h *ConversationHandler) Create(c echo.Context) error {
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if req.PeerID == 0 {
		return response.BadRequest(c, "peerId is required")
	}

	conv, created, err := h.chat.EnsureConversation(c.Request().Context(), middleware.UserID(c), middleware.UserRole(c), req.PeerID)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, conv)
	}
	return response.Success(c, conv)
}

// Archive handles PATCH /api/v1/conversations/:id
func (h *ConversationHandler) Archive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid conversation ID")
	}

	var req ArchiveConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.IsArchived == nil {
		return response.BadRequest(c, "isArchived is required")
	}

	conv, err := h.conversations.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "conversation not found")
		}
		return response.InternalError(c, "failed to get conversation")
	}
	if !conv.HasParticipant(middleware.UserID(c)) {
		return response.Forbidden(c, "not a conversation participant")
	}

	if err := h.conversations.SetArchived(c.Request().Context(), conv.ID, *req.IsArchived); err != nil {
		return response.InternalError(c, "failed to update conversation")
	}

	conv.IsArchived = *req.IsArchived
	return response.Success(c, conv)
}

// MarkRead handles POST /api/v1/conversations/:id/read
//
// Connected devices of both participants learn about the receipt through
// the broadcaster, so a read on one phone clears badges on the other.
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid conversation ID")
	}

	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	readerID := middleware.UserID(c)
	result, err := h.chat.MarkRead(c.Request().Context(), readerID, uint(id), req.UpToMessageID)
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcast != nil {
		h.broadcast.ReadReceipt(result, readerID)
	}

	return response.Success(c, MarkReadResponse{Updated: result.Updated})
}
