package models

import (
	"time"
)

// Requirement statuses
const (
	RequirementStatusOpen   = "open"
	RequirementStatusClosed = "closed"
)

// Requirement is a sourcing request posted by a buyer for manufacturers
// to quote against
type Requirement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BuyerID     uint      `gorm:"not null;index" json:"buyer_id"`
	Title       string    `gorm:"not null;size:255" json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `gorm:"size:100;index" json:"category,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	TargetPrice float64   `json:"target_price,omitempty"`
	Status      string    `gorm:"not null;size:20;default:open;index" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Buyer  User    `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Quotes []Quote `gorm:"foreignKey:RequirementID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Requirement
func (Requirement) TableName() string {
	return "requirements"
}
