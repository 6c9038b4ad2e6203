package models

import (
	"time"
)

// Design is an AI-generated product design owned by a buyer. The image
// itself lives in file storage; messages may reference a design id to
// scope a chat thread to one design discussion.
type Design struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyer_id"`
	Prompt    string    `gorm:"not null" json:"prompt"`
	ImageURL  string    `gorm:"not null;size:500" json:"image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Buyer User `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Design
func (Design) TableName() string {
	return "designs"
}
