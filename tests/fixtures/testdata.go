package fixtures

import (
	"fmt"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/models"
)

// UserBuilder creates test User instances with fluent API
type UserBuilder struct {
	user models.User
}

// NewUserBuilder creates a new UserBuilder with buyer defaults
func NewUserBuilder() *UserBuilder {
	now := time.Now()
	return &UserBuilder{
		user: models.User{
			ID:          1,
			Phone:       "+628111111111",
			Role:        models.RoleBuyer,
			DisplayName: "Test Buyer",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the user ID
func (b *UserBuilder) WithID(id uint) *UserBuilder {
	b.user.ID = id
	return b
}

// WithPhone sets the E.164 phone number
func (b *UserBuilder) WithPhone(phone string) *UserBuilder {
	b.user.Phone = phone
	return b
}

// WithRole sets the marketplace role
func (b *UserBuilder) WithRole(role string) *UserBuilder {
	b.user.Role = role
	return b
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.user.DisplayName = name
	return b
}

// WithCompanyName sets the company name
func (b *UserBuilder) WithCompanyName(name string) *UserBuilder {
	b.user.CompanyName = name
	return b
}

// AsManufacturer switches the fixture to a manufacturer profile
func (b *UserBuilder) AsManufacturer() *UserBuilder {
	b.user.Role = models.RoleManufacturer
	if b.user.DisplayName == "Test Buyer" {
		b.user.DisplayName = "Test Manufacturer"
	}
	return b
}

// Build returns the constructed User
func (b *UserBuilder) Build() *models.User {
	return &b.user
}

// BuildValue returns the constructed User as a value (not pointer)
func (b *UserBuilder) BuildValue() models.User {
	return b.user
}

// ConversationBuilder creates test Conversation instances with fluent API
type ConversationBuilder struct {
	conversation models.Conversation
}

// NewConversationBuilder creates a new ConversationBuilder with sensible defaults
func NewConversationBuilder() *ConversationBuilder {
	now := time.Now()
	return &ConversationBuilder{
		conversation: models.Conversation{
			ID:             1,
			BuyerID:        1,
			ManufacturerID: 2,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// WithID sets the conversation ID
func (b *ConversationBuilder) WithID(id uint) *ConversationBuilder {
	b.conversation.ID = id
	return b
}

// WithParticipants sets the buyer/manufacturer pair
func (b *ConversationBuilder) WithParticipants(buyerID, manufacturerID uint) *ConversationBuilder {
	b.conversation.BuyerID = buyerID
	b.conversation.ManufacturerID = manufacturerID
	return b
}

// WithLastMessage sets the denormalized summary fields
func (b *ConversationBuilder) WithLastMessage(text string, at time.Time) *ConversationBuilder {
	b.conversation.LastMessageText = &text
	b.conversation.LastMessageAt = &at
	return b
}

// WithArchived sets the archived flag
func (b *ConversationBuilder) WithArchived(archived bool) *ConversationBuilder {
	b.conversation.IsArchived = archived
	return b
}

// Build returns the constructed Conversation
func (b *ConversationBuilder) Build() *models.Conversation {
	return &b.conversation
}

// BuildValue returns the constructed Conversation as a value (not pointer)
func (b *ConversationBuilder) BuildValue() models.Conversation {
	return b.conversation
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			ID:             1,
			ConversationID: 1,
			SenderID:       1,
			SenderRole:     models.RoleBuyer,
			Body:           "Hello, can you produce this?",
			CreatedAt:      time.Now(),
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithConversationID sets the parent conversation
func (b *MessageBuilder) WithConversationID(conversationID uint) *MessageBuilder {
	b.message.ConversationID = conversationID
	return b
}

// WithSender sets the sender id and role
func (b *MessageBuilder) WithSender(senderID uint, role string) *MessageBuilder {
	b.message.SenderID = senderID
	b.message.SenderRole = role
	return b
}

// WithBody sets the message body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = body
	return b
}

// WithClientTempID sets the client idempotency token
func (b *MessageBuilder) WithClientTempID(tempID string) *MessageBuilder {
	b.message.ClientTempID = tempID
	return b
}

// WithRequirementID tags the message with a requirement context
func (b *MessageBuilder) WithRequirementID(id uint) *MessageBuilder {
	b.message.RequirementID = &id
	return b
}

// WithDesignID tags the message with a design context
func (b *MessageBuilder) WithDesignID(id uint) *MessageBuilder {
	b.message.DesignID = &id
	return b
}

// WithRead sets the read flag
func (b *MessageBuilder) WithRead(isRead bool) *MessageBuilder {
	b.message.IsRead = isRead
	return b
}

// WithCreatedAt sets the creation timestamp
func (b *MessageBuilder) WithCreatedAt(t time.Time) *MessageBuilder {
	b.message.CreatedAt = t
	return b
}

// WithAttachments sets the message attachments
func (b *MessageBuilder) WithAttachments(attachments []models.Attachment) *MessageBuilder {
	b.message.Attachments = attachments
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	return &b.message
}

// BuildValue returns the constructed Message as a value (not pointer)
func (b *MessageBuilder) BuildValue() models.Message {
	return b.message
}

// AttachmentBuilder creates test Attachment instances with fluent API
type AttachmentBuilder struct {
	attachment models.Attachment
}

// NewAttachmentBuilder creates a new AttachmentBuilder with image defaults
func NewAttachmentBuilder() *AttachmentBuilder {
	return &AttachmentBuilder{
		attachment: models.Attachment{
			ID:        1,
			MessageID: 1,
			URL:       "/files/ab/cd/abcd1234.jpg",
			MimeType:  "image/jpeg",
			SizeBytes: 2048,
			Width:     800,
			Height:    600,
		},
	}
}

// WithID sets the attachment ID
func (b *AttachmentBuilder) WithID(id uint) *AttachmentBuilder {
	b.attachment.ID = id
	return b
}

// WithMessageID sets the parent message
func (b *AttachmentBuilder) WithMessageID(messageID uint) *AttachmentBuilder {
	b.attachment.MessageID = messageID
	return b
}

// WithURL sets the stored file URL
func (b *AttachmentBuilder) WithURL(url string) *AttachmentBuilder {
	b.attachment.URL = url
	return b
}

// WithMimeType sets the content type
func (b *AttachmentBuilder) WithMimeType(mimeType string) *AttachmentBuilder {
	b.attachment.MimeType = mimeType
	return b
}

// WithSize sets the file size in bytes
func (b *AttachmentBuilder) WithSize(size int64) *AttachmentBuilder {
	b.attachment.SizeBytes = size
	return b
}

// WithDimensions sets the pixel dimensions
func (b *AttachmentBuilder) WithDimensions(width, height int) *AttachmentBuilder {
	b.attachment.Width = width
	b.attachment.Height = height
	return b
}

// Build returns the constructed Attachment
func (b *AttachmentBuilder) Build() *models.Attachment {
	return &b.attachment
}

// BuildValue returns the constructed Attachment as a value (not pointer)
func (b *AttachmentBuilder) BuildValue() models.Attachment {
	return b.attachment
}

// RequirementBuilder creates test Requirement instances with fluent API
type RequirementBuilder struct {
	requirement models.Requirement
}

// NewRequirementBuilder creates a new RequirementBuilder with open defaults
func NewRequirementBuilder() *RequirementBuilder {
	now := time.Now()
	return &RequirementBuilder{
		requirement: models.Requirement{
			ID:        1,
			BuyerID:   1,
			Title:     "500 ceramic mugs",
			Category:  "homeware",
			Quantity:  500,
			Status:    models.RequirementStatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets the requirement ID
func (b *RequirementBuilder) WithID(id uint) *RequirementBuilder {
	b.requirement.ID = id
	return b
}

// WithBuyerID sets the owning buyer
func (b *RequirementBuilder) WithBuyerID(buyerID uint) *RequirementBuilder {
	b.requirement.BuyerID = buyerID
	return b
}

// WithTitle sets the requirement title
func (b *RequirementBuilder) WithTitle(title string) *RequirementBuilder {
	b.requirement.Title = title
	return b
}

// WithCategory sets the category
func (b *RequirementBuilder) WithCategory(category string) *RequirementBuilder {
	b.requirement.Category = category
	return b
}

// WithQuantity sets the quantity
func (b *RequirementBuilder) WithQuantity(quantity int) *RequirementBuilder {
	b.requirement.Quantity = quantity
	return b
}

// WithTargetPrice sets the target unit price
func (b *RequirementBuilder) WithTargetPrice(price float64) *RequirementBuilder {
	b.requirement.TargetPrice = price
	return b
}

// WithStatus sets the lifecycle status
func (b *RequirementBuilder) WithStatus(status string) *RequirementBuilder {
	b.requirement.Status = status
	return b
}

// Build returns the constructed Requirement
func (b *RequirementBuilder) Build() *models.Requirement {
	return &b.requirement
}

// BuildValue returns the constructed Requirement as a value (not pointer)
func (b *RequirementBuilder) BuildValue() models.Requirement {
	return b.requirement
}

// QuoteBuilder creates test Quote instances with fluent API
type QuoteBuilder struct {
	quote models.Quote
}

// NewQuoteBuilder creates a new QuoteBuilder with pending defaults
func NewQuoteBuilder() *QuoteBuilder {
	now := time.Now()
	return &QuoteBuilder{
		quote: models.Quote{
			ID:             1,
			RequirementID:  1,
			ManufacturerID: 2,
			Price:          2.2,
			LeadTimeDays:   21,
			Status:         models.QuoteStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// WithID sets the quote ID
func (b *QuoteBuilder) WithID(id uint) *QuoteBuilder {
	b.quote.ID = id
	return b
}

// WithRequirementID sets the quoted requirement
func (b *QuoteBuilder) WithRequirementID(id uint) *QuoteBuilder {
	b.quote.RequirementID = id
	return b
}

// WithManufacturerID sets the submitting manufacturer
func (b *QuoteBuilder) WithManufacturerID(id uint) *QuoteBuilder {
	b.quote.ManufacturerID = id
	return b
}

// WithPrice sets the quoted unit price
func (b *QuoteBuilder) WithPrice(price float64) *QuoteBuilder {
	b.quote.Price = price
	return b
}

// WithLeadTime sets the lead time in days
func (b *QuoteBuilder) WithLeadTime(days int) *QuoteBuilder {
	b.quote.LeadTimeDays = days
	return b
}

// WithStatus sets the quote status
func (b *QuoteBuilder) WithStatus(status string) *QuoteBuilder {
	b.quote.Status = status
	return b
}

// Build returns the constructed Quote
func (b *QuoteBuilder) Build() *models.Quote {
	return &b.quote
}

// BuildValue returns the constructed Quote as a value (not pointer)
func (b *QuoteBuilder) BuildValue() models.Quote {
	return b.quote
}

// DesignBuilder creates test Design instances with fluent API
type DesignBuilder struct {
	design models.Design
}

// NewDesignBuilder creates a new DesignBuilder with sensible defaults
func NewDesignBuilder() *DesignBuilder {
	return &DesignBuilder{
		design: models.Design{
			ID:        1,
			BuyerID:   1,
			Prompt:    "minimalist ceramic mug, matte black",
			ImageURL:  "/files/de/ad/dead1234.png",
			CreatedAt: time.Now(),
		},
	}
}

// WithID sets the design ID
func (b *DesignBuilder) WithID(id uint) *DesignBuilder {
	b.design.ID = id
	return b
}

// WithBuyerID sets the owning buyer
func (b *DesignBuilder) WithBuyerID(buyerID uint) *DesignBuilder {
	b.design.BuyerID = buyerID
	return b
}

// WithPrompt sets the generation prompt
func (b *DesignBuilder) WithPrompt(prompt string) *DesignBuilder {
	b.design.Prompt = prompt
	return b
}

// WithImageURL sets the stored image URL
func (b *DesignBuilder) WithImageURL(url string) *DesignBuilder {
	b.design.ImageURL = url
	return b
}

// Build returns the constructed Design
func (b *DesignBuilder) Build() *models.Design {
	return &b.design
}

// BuildValue returns the constructed Design as a value (not pointer)
func (b *DesignBuilder) BuildValue() models.Design {
	return b.design
}

// Helper functions for creating multiple test entities

// CreateUsers creates count users alternating buyer/manufacturer roles,
// with sequential IDs and unique phone numbers
func CreateUsers(count int) []models.User {
	users := make([]models.User, count)
	for i := 0; i < count; i++ {
		role := models.RoleBuyer
		if i%2 == 1 {
			role = models.RoleManufacturer
		}
		users[i] = NewUserBuilder().
			WithID(uint(i + 1)).
			WithPhone(fmt.Sprintf("+62811%07d", i+1)).
			WithRole(role).
			WithDisplayName(generateDisplayName(i)).
			BuildValue()
	}
	return users
}

// CreateMessages creates count messages in a conversation, oldest first,
// alternating between the two participants
func CreateMessages(conversationID uint, buyerID, manufacturerID uint, count int) []models.Message {
	messages := make([]models.Message, count)
	base := time.Now().Add(-time.Duration(count) * time.Minute)
	for i := 0; i < count; i++ {
		senderID, role := buyerID, models.RoleBuyer
		if i%2 == 1 {
			senderID, role = manufacturerID, models.RoleManufacturer
		}
		messages[i] = NewMessageBuilder().
			WithID(uint(i + 1)).
			WithConversationID(conversationID).
			WithSender(senderID, role).
			WithBody(generateBody(i)).
			WithCreatedAt(base.Add(time.Duration(i) * time.Minute)).
			BuildValue()
	}
	return messages
}

// CreateRequirements creates count open requirements for a buyer
func CreateRequirements(buyerID uint, count int) []models.Requirement {
	requirements := make([]models.Requirement, count)
	for i := 0; i < count; i++ {
		requirements[i] = NewRequirementBuilder().
			WithID(uint(i + 1)).
			WithBuyerID(buyerID).
			WithTitle(generateTitle(i)).
			WithQuantity((i + 1) * 100).
			BuildValue()
	}
	return requirements
}

// Helper functions for generating test data
func generateDisplayName(index int) string {
	names := []string{"Sari Handicraft", "Budi Works", "Tirta Ceramics", "Maju Textiles", "Andalan Wood"}
	return names[index%len(names)]
}

func generateBody(index int) string {
	bodies := []string{
		"Hi, is this item still available for bulk orders?",
		"Yes, what quantity are you looking at?",
		"Around 500 units, shipped to Jakarta.",
		"We can do that. Lead time is about three weeks.",
		"Could you share a sample photo first?",
	}
	return bodies[index%len(bodies)]
}

func generateTitle(index int) string {
	titles := []string{
		"500 ceramic mugs",
		"Custom batik tote bags",
		"Rattan lounge chairs",
		"Teak serving trays",
		"Embroidered linen napkins",
	}
	return titles[index%len(titles)]
}
