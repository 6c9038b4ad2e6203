package handlers

import (
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

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	chat          ChatBackend
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	broadcast     Broadcaster
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(chat ChatBackend, conversations repository.ConversationRepository, messages repository.MessageRepository, broadcast Broadcaster) *MessageHandler {
	return &MessageHandler{
		chat:          chat,
		conversations: conversations,
		messages:      messages,
		broadcast:     broadcast,
	}
}

// SendMessageRequest mirrors the send-message socket payload, minus the
// conversation id which rides in the URL
type SendMessageRequest struct {
	Body          string                     `json:"body"`
	ClientTempID  string                     `json:"clientTempId"`
	RequirementID *uint                      `json:"requirementId"`
	DesignID      *uint                      `json:"aiDesignId"`
	Attachments   []services.AttachmentInput `json:"attachments"`
}

// SendMessageResponse carries the stored message and the refreshed
// conversation summary, the same shape the message:new broadcast uses
type SendMessageResponse struct {
	Message      *models.Message      `json:"message"`
	Conversation *models.Conversation `json:"conversation"`
}

// List handles GET /api/v1/conversations/:id/messages
//
// Returns messages in ascending chronological order. The before query param
// pages backwards through history: pass the next_cursor of the previous page
// to fetch the older slice. requirementId and designId narrow the listing to
// messages tagged with that entity.
func (h *MessageHandler) List(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid conversation ID")
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

	opts := repository.MessageListOptions{Limit: 50}

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
	if rid := c.QueryParam("requirementId"); rid != "" {
		parsed, err := strconv.ParseUint(rid, 10, 32)
		if err != nil {
			return response.BadRequest(c, "invalid requirementId filter")
		}
		requirementID := uint(parsed)
		opts.RequirementID = &requirementID
	}
	if did := c.QueryParam("designId"); did != "" {
		parsed, err := strconv.ParseUint(did, 10, 32)
		if err != nil {
			return response.BadRequest(c, "invalid designId filter")
		}
		designID := uint(parsed)
		opts.DesignID = &designID
	}

	messages, err := h.messages.ListByConversation(c.Request().Context(), conv.ID, opts)
	if err != nil {
		return response.InternalError(c, "failed to list messages")
	}

	// Pages hold the newest messages before the cursor, returned ascending,
	// so the next (older) page starts before the first element.
	nextCursor := ""
	hasMore := len(messages) == opts.Limit
	if hasMore {
		nextCursor = messages[0].CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return response.Cursor(c, messages, nextCursor, hasMore)
}

// Send handles POST /api/v1/conversations/:id/messages
//
// Same append semantics as the send-message socket event, but validation and
// authorization failures surface as HTTP errors instead of silent drops.
// Connected participants still receive the message:new broadcast.
func (h *MessageHandler) Send(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid conversation ID")
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.chat.SendMessage(c.Request().Context(), services.SendMessageInput{
		ConversationID: uint(id),
		SenderID:       middleware.UserID(c),
		Body:           req.Body,
		ClientTempID:   req.ClientTempID,
		RequirementID:  req.RequirementID,
		DesignID:       req.DesignID,
		Attachments:    req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if h.broadcast != nil {
		h.broadcast.MessageCreated(result)
	}

	return response.Created(c, SendMessageResponse{
		Message:      result.Message,
		Conversation: result.Conversation,
	})
}
