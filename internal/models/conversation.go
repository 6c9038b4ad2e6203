package models

import (
	"time"
)

// Conversation is the unique chat channel between one buyer and one
// manufacturer. The (buyer, manufacturer) pair is unique: at most one
// conversation per pair ever exists. LastMessageText and LastMessageAt
// are denormalized from the most recent message and stay null until the
// first message arrives.
type Conversation struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BuyerID         uint       `gorm:"not null;index;uniqueIndex:idx_conversations_pair" json:"buyer_id"`
	ManufacturerID  uint       `gorm:"not null;index;uniqueIndex:idx_conversations_pair" json:"manufacturer_id"`
	LastMessageText *string    `gorm:"size:255" json:"last_message_text"`
	LastMessageAt   *time.Time `gorm:"index" json:"last_message_at"`
	IsArchived      bool       `gorm:"default:false" json:"is_archived"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Buyer        User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Manufacturer User      `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:CASCADE" json:"-"`
	Messages     []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant reports whether the given user is one of the two
// conversation participants
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.ManufacturerID == userID
}

// PeerID returns the other participant relative to userID. The caller is
// responsible for checking participancy first.
func (c *Conversation) PeerID(userID uint) uint {
	if c.BuyerID == userID {
		return c.ManufacturerID
	}
	return c.BuyerID
}

// ConversationListItem is the conversation list view enriched with the
// caller's unread count and the peer's display profile
type ConversationListItem struct {
	Conversation
	UnreadCount int64          `json:"unread_count"`
	Peer        DisplayProfile `gorm:"-" json:"peer"`
}
