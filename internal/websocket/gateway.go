package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
	"github.com/craftlinkhq/craftlink-backend/internal/metrics"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/presence"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
)

// eventTimeout bounds the store work done for a single inbound event.
const eventTimeout = 10 * time.Second

// ChatBackend is the slice of the chat service the gateway drives.
type ChatBackend interface {
	SendMessage(ctx context.Context, input services.SendMessageInput) (*services.SendResult, error)
	MarkRead(ctx context.Context, readerID, conversationID uint, upToMessageID *uint) (*services.MarkReadResult, error)
}

// Notifier delivers best-effort notifications to users who are not
// connected. *notify.Dispatcher provides it in production.
type Notifier interface {
	ChatMessage(peer *models.User, senderName, preview string)
}

// Gateway authenticates websocket connections, tracks presence, and turns
// inbound events into chat operations and broadcasts. It is the EventSink
// for every client it accepts.
type Gateway struct {
	hub      *Hub
	presence *presence.Tracker
	chat     ChatBackend
	notifier Notifier
	tokens   *auth.TokenService
	upgrader websocket.Upgrader
	logger   *slog.Logger
	sec      *seclog.SecurityLogger
}

// NewGateway creates a Gateway. notifier may be nil when no notification
// channels are configured.
func NewGateway(
	hub *Hub,
	tracker *presence.Tracker,
	chat ChatBackend,
	notifier Notifier,
	tokens *auth.TokenService,
	upgrader websocket.Upgrader,
	logger *slog.Logger,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		hub:      hub,
		presence: tracker,
		chat:     chat,
		notifier: notifier,
		tokens:   tokens,
		upgrader: upgrader,
		logger:   logger,
		sec:      seclog.NewSecurityLoggerWithHandler(logger.Handler()),
	}
}

// Wire payloads. Envelope and payload keys are camelCase; embedded model
// objects marshal with their own snake_case tags.
type sendMessagePayload struct {
	ConversationID uint                       `json:"conversationId"`
	Body           string                     `json:"body"`
	ClientTempID   string                     `json:"clientTempId"`
	RequirementID  *uint                      `json:"requirementId"`
	AIDesignID     *uint                      `json:"aiDesignId"`
	Attachments    []services.AttachmentInput `json:"attachments"`
}

type markReadPayload struct {
	ConversationID uint  `json:"conversationId"`
	UpToMessageID  *uint `json:"upToMessageId"`
}

type messageNewPayload struct {
	Message      *models.Message      `json:"message"`
	Conversation *models.Conversation `json:"conversation"`
}

type messageReadPayload struct {
	ConversationID uint      `json:"conversationId"`
	ReaderUserID   uint      `json:"readerUserId"`
	UpToMessageID  *uint     `json:"upToMessageId,omitempty"`
	At             time.Time `json:"at"`
}

type presencePayload struct {
	UserID uint `json:"userId"`
	Online bool `json:"online"`
}

// HandleConnection upgrades an authenticated request to a websocket and
// runs the connection until it closes. The JWT arrives as a query
// parameter because browsers cannot set headers on websocket dials;
// invalid credentials are refused before the upgrade.
func (g *Gateway) HandleConnection(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "missing token",
			"code":  apperrors.CodeUnauthorized,
		})
	}

	claims, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		g.logger.Warn("websocket auth failed",
			slog.String("remote_ip", c.RealIP()),
			slog.Any("error", err))
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "invalid or expired token",
			"code":  apperrors.CodeUnauthorized,
		})
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own failure response.
		g.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return nil
	}

	client := NewClient(g.hub, conn, claims.UserID, g, g.logger)
	g.hub.Register(client)
	metrics.WSConnectionOpened()

	if g.presence.Connect(claims.UserID) {
		g.hub.SendToUser(claims.UserID, EventPresence, presencePayload{UserID: claims.UserID, Online: true})
	}

	g.logger.Info("websocket connected", slog.Uint64("user_id", uint64(claims.UserID)))

	go client.WritePump()
	client.ReadPump()
	return nil
}

// SendMessage handles a send-message event. Failures are dropped silently:
// the socket is fire-and-forget, clients reconcile through clientTempId.
func (g *Gateway) SendMessage(senderID uint, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.drop(senderID, EventSendMessage, "malformed payload", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	result, err := g.chat.SendMessage(ctx, services.SendMessageInput{
		ConversationID: payload.ConversationID,
		SenderID:       senderID,
		Body:           payload.Body,
		ClientTempID:   payload.ClientTempID,
		RequirementID:  payload.RequirementID,
		DesignID:       payload.AIDesignID,
		Attachments:    payload.Attachments,
	})
	if err != nil {
		g.drop(senderID, EventSendMessage, "send rejected", err)
		return
	}
	metrics.GatewayEvent(string(EventSendMessage), metrics.OutcomeOK)

	g.MessageCreated(result)
}

// MessageCreated broadcasts a stored message to both participants and
// notifies the peer when offline. The HTTP send path shares it so REST
// sends reach connected clients the same way socket sends do.
func (g *Gateway) MessageCreated(result *services.SendResult) {
	out := messageNewPayload{Message: result.Message, Conversation: result.Conversation}
	g.hub.SendToUser(result.Conversation.BuyerID, EventMessageNew, out)
	g.hub.SendToUser(result.Conversation.ManufacturerID, EventMessageNew, out)

	if g.notifier != nil && result.Peer != nil && !g.presence.Online(result.Peer.ID) {
		g.notifier.ChatMessage(result.Peer, result.Sender.DisplayName, result.Preview())
	}
}

// MarkRead handles a mark-read event. The receipt goes to both groups so
// the reader's other devices converge too.
func (g *Gateway) MarkRead(readerID uint, data json.RawMessage) {
	var payload markReadPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.drop(readerID, EventMarkRead, "malformed payload", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	result, err := g.chat.MarkRead(ctx, readerID, payload.ConversationID, payload.UpToMessageID)
	if err != nil {
		g.drop(readerID, EventMarkRead, "mark-read rejected", err)
		return
	}
	metrics.GatewayEvent(string(EventMarkRead), metrics.OutcomeOK)

	g.ReadReceipt(result, readerID)
}

// ReadReceipt broadcasts a read receipt to both participants' groups; the
// reader's own devices converge through it too. Shared with the HTTP path.
func (g *Gateway) ReadReceipt(result *services.MarkReadResult, readerID uint) {
	out := messageReadPayload{
		ConversationID: result.Conversation.ID,
		ReaderUserID:   readerID,
		UpToMessageID:  result.UpToMessageID,
		At:             result.At,
	}
	g.hub.SendToUser(result.Conversation.BuyerID, EventMessageRead, out)
	g.hub.SendToUser(result.Conversation.ManufacturerID, EventMessageRead, out)
}

// Disconnected is called once per closing connection.
func (g *Gateway) Disconnected(userID uint) {
	metrics.WSConnectionClosed()
	if g.presence.Disconnect(userID) {
		g.hub.SendToUser(userID, EventPresence, presencePayload{UserID: userID, Online: false})
	}
	g.logger.Info("websocket disconnected", slog.Uint64("user_id", uint64(userID)))
}

// drop records a discarded inbound event. Drops stay at debug level so a
// flaky client cannot flood the logs, but forbidden errors mean the sender
// tried to touch a conversation they are not part of, and those surface as
// security events.
func (g *Gateway) drop(userID uint, event EventType, reason string, err error) {
	metrics.GatewayEvent(string(event), metrics.OutcomeDropped)
	g.logger.Debug("gateway event dropped",
		slog.String("event", string(event)),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("reason", reason),
		slog.Any("error", err))

	if apperrors.IsForbidden(err) {
		g.sec.GatewayEventDropped(userID, string(event), reason)
	}
}
