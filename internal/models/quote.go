package models

import (
	"time"
)

// Quote statuses
const (
	QuoteStatusPending  = "pending"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
)

// Quote is a manufacturer's offer against a buyer requirement. A
// manufacturer may quote each requirement once, enforced by the
// (requirement, manufacturer) unique index.
type Quote struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RequirementID  uint      `gorm:"not null;index;uniqueIndex:idx_quotes_requirement_manufacturer" json:"requirement_id"`
	ManufacturerID uint      `gorm:"not null;index;uniqueIndex:idx_quotes_requirement_manufacturer" json:"manufacturer_id"`
	Price          float64   `gorm:"not null" json:"price"`
	LeadTimeDays   int       `json:"lead_time_days,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Status         string    `gorm:"not null;size:20;default:pending" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Requirement  Requirement `gorm:"foreignKey:RequirementID;constraint:OnDelete:CASCADE" json:"-"`
	Manufacturer User        `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Quote
func (Quote) TableName() string {
	return "quotes"
}
