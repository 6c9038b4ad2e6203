package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"gorm.io/gorm"
)

// ConversationListOptions narrows and pages a conversation listing.
// Before is a keyset cursor on last_message_at; Search is a
// case-insensitive substring match on the summary text.
type ConversationListOptions struct {
	Search string
	Limit  int
	Before *time.Time
}

// ConversationRepository defines the interface for conversation data access
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	GetByPair(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, error)
	GetOrCreate(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, bool, error)
	ListForUser(ctx context.Context, userID uint, role string, opts ConversationListOptions) ([]models.ConversationListItem, error)
	UpdateSummary(ctx context.Context, id uint, text string, at time.Time) error
	SetArchived(ctx context.Context, id uint, archived bool) error
}

// conversationRepository implements ConversationRepository using GORM
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new ConversationRepository instance
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create creates a new conversation
func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	result := r.db.WithContext(ctx).Create(conversation)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("conversation for pair (%d, %d) already exists: %w",
				conversation.BuyerID, conversation.ManufacturerID, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create conversation: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a conversation by its ID
func (r *conversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	result := r.db.WithContext(ctx).First(&conversation, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation by ID: %w", result.Error)
	}
	return &conversation, nil
}

// GetByPair retrieves the conversation for a buyer/manufacturer pair
func (r *conversationRepository) GetByPair(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	result := r.db.WithContext(ctx).
		Where("buyer_id = ? AND manufacturer_id = ?", buyerID, manufacturerID).
		First(&conversation)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation by pair: %w", result.Error)
	}
	return &conversation, nil
}

// GetOrCreate retrieves the conversation for a pair or creates it if it
// doesn't exist. Returns the conversation, a boolean indicating if it was
// created, and any error. Concurrent callers converge on a single row:
// the loser of the insert race sees the uniqueness conflict and re-reads.
func (r *conversationRepository) GetOrCreate(ctx context.Context, buyerID, manufacturerID uint) (*models.Conversation, bool, error) {
	// Try to find existing conversation
	conversation, err := r.GetByPair(ctx, buyerID, manufacturerID)
	if err == nil {
		return conversation, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// Create new conversation
	conversation = &models.Conversation{
		BuyerID:        buyerID,
		ManufacturerID: manufacturerID,
	}

	if err := r.Create(ctx, conversation); err != nil {
		// Handle race condition - another request might have created it
		if errors.Is(err, ErrDuplicateEntry) {
			conversation, err = r.GetByPair(ctx, buyerID, manufacturerID)
			if err != nil {
				return nil, false, err
			}
			return conversation, false, nil
		}
		return nil, false, err
	}

	return conversation, true, nil
}

// conversationRow is the flat scan target for the enriched list query
type conversationRow struct {
	ID              uint
	BuyerID         uint
	ManufacturerID  uint
	LastMessageText *string
	LastMessageAt   *time.Time
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	UnreadCount     int64
	PeerID          uint
	PeerRole        string
	PeerDisplayName string
	PeerCompanyName string
	PeerAvatarURL   string
}

// ListForUser retrieves the conversations the user participates in (as the
// given role), ordered by last_message_at descending with never-messaged
// conversations last, tie-broken by creation time. Each row carries the
// caller's unread count (messages not sent by the caller, computed as a
// correlated subquery) and the peer's display profile (joined), so the
// whole listing costs one query regardless of page size.
func (r *conversationRepository) ListForUser(ctx context.Context, userID uint, role string, opts ConversationListOptions) ([]models.ConversationListItem, error) {
	var ownCol, peerCol string
	switch role {
	case models.RoleBuyer:
		ownCol, peerCol = "buyer_id", "manufacturer_id"
	case models.RoleManufacturer:
		ownCol, peerCol = "manufacturer_id", "buyer_id"
	default:
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT
			c.id,
			c.buyer_id,
			c.manufacturer_id,
			c.last_message_text,
			c.last_message_at,
			c.is_archived,
			c.created_at,
			c.updated_at,
			COALESCE((SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.is_read = false AND m.sender_id <> ?), 0) AS unread_count,
			u.id AS peer_id,
			u.role AS peer_role,
			u.display_name AS peer_display_name,
			u.company_name AS peer_company_name,
			u.avatar_url AS peer_avatar_url
		FROM conversations c
		JOIN users u ON u.id = c.%s
		WHERE c.%s = ?`, peerCol, ownCol)
	args := []interface{}{userID, userID}

	if opts.Search != "" {
		query += " AND LOWER(c.last_message_text) LIKE ?"
		args = append(args, "%"+strings.ToLower(opts.Search)+"%")
	}
	if opts.Before != nil {
		query += " AND c.last_message_at < ?"
		args = append(args, *opts.Before)
	}

	query += `
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
		LIMIT ?`
	args = append(args, limit)

	var rows []conversationRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	items := make([]models.ConversationListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.ConversationListItem{
			Conversation: models.Conversation{
				ID:              row.ID,
				BuyerID:         row.BuyerID,
				ManufacturerID:  row.ManufacturerID,
				LastMessageText: row.LastMessageText,
				LastMessageAt:   row.LastMessageAt,
				IsArchived:      row.IsArchived,
				CreatedAt:       row.CreatedAt,
				UpdatedAt:       row.UpdatedAt,
			},
			UnreadCount: row.UnreadCount,
			Peer: models.DisplayProfile{
				ID:          row.PeerID,
				Role:        row.PeerRole,
				DisplayName: row.PeerDisplayName,
				CompanyName: row.PeerCompanyName,
				AvatarURL:   row.PeerAvatarURL,
			},
		})
	}

	return items, nil
}

// UpdateSummary refreshes the denormalized last-message fields
func (r *conversationRepository) UpdateSummary(ctx context.Context, id uint, text string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_text": text,
			"last_message_at":   at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update conversation summary: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchived toggles the archived flag
func (r *conversationRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	result := r.db.WithContext(ctx).Model(&models.Conversation{}).Where("id = ?", id).
		Update("is_archived", archived)
	if result.Error != nil {
		return fmt.Errorf("failed to update conversation archived flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
