package models

import (
	"time"
)

// User roles
const (
	RoleBuyer        = "buyer"
	RoleManufacturer = "manufacturer"
)

// User represents a marketplace account, either a buyer or a manufacturer
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Phone       string    `gorm:"uniqueIndex;not null;size:20" json:"phone"`
	Role        string    `gorm:"not null;size:20;index" json:"role"`
	DisplayName string    `gorm:"not null;size:255" json:"display_name"`
	CompanyName string    `gorm:"size:255" json:"company_name,omitempty"`
	AvatarURL   string    `gorm:"size:500" json:"avatar_url,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// ValidRole reports whether s is a recognized user role
func ValidRole(s string) bool {
	return s == RoleBuyer || s == RoleManufacturer
}

// DisplayProfile is the subset of a user exposed to conversation peers
// and public profile lookups
type DisplayProfile struct {
	ID          uint   `json:"id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	CompanyName string `json:"company_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Profile returns the user's public display profile
func (u *User) Profile() DisplayProfile {
	return DisplayProfile{
		ID:          u.ID,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		CompanyName: u.CompanyName,
		AvatarURL:   u.AvatarURL,
	}
}
