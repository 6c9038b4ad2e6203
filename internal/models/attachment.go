package models

// Attachment is a file attached to a chat message. The URL and metadata
// come from the upload endpoint (or an out-of-band upload); rows are
// created together with their parent message and never mutated.
type Attachment struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	MessageID   uint    `gorm:"not null;index" json:"message_id"`
	URL         string  `gorm:"not null;size:500" json:"url"`
	MimeType    string  `gorm:"size:100" json:"mime_type"`
	SizeBytes   int64   `json:"size_bytes,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	DurationSec float64 `json:"duration_sec,omitempty"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}
