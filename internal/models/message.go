package models

import (
	"time"
)

// Message is a chat message inside a conversation. Messages are
// append-only: nothing is ever mutated after insert except the one-way
// false→true IsRead transition. ClientTempID is an optional
// client-generated idempotency token echoed back so optimistic UI
// inserts can be reconciled with the stored row.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	SenderRole     string    `gorm:"not null;size:20" json:"sender_role"`
	Body           string    `gorm:"size:4000" json:"body"`
	ClientTempID   string    `gorm:"size:64" json:"client_temp_id,omitempty"`
	RequirementID  *uint     `gorm:"index" json:"requirement_id,omitempty"`
	DesignID       *uint     `gorm:"index" json:"design_id,omitempty"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_messages_conversation_created" json:"created_at"`

	// Relationships
	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	Sender       User         `gorm:"foreignKey:SenderID" json:"-"`
	Attachments  []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}
