package domain

import (
	"time"
)

// ConversationStatus represents the state of a messaging thread.
type ConversationStatus string

const (
	ConversationStatusActive ConversationStatus = "active"
	ConversationStatusClosed ConversationStatus = "closed"
)

// MessageDirection distinguishes inbound from outbound messages.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Conversation is a persisted thread of WhatsApp messages keyed by the
// counterpart phone number. Created lazily on first inbound message.
type Conversation struct {
	ID            string             `json:"id" gorm:"type:uuid;primaryKey"`
	PhoneNumber   string             `json:"phone_number" gorm:"type:varchar(32);not null;uniqueIndex"`
	ContactName   string             `json:"contact_name" gorm:"type:varchar(255)"`
	Status        ConversationStatus `json:"status" gorm:"type:varchar(16);not null"`
	LastMessageAt time.Time          `json:"last_message_at"`
	UnreadCount   int                `json:"unread_count" gorm:"default:0"`
	AIAgentID     *string            `json:"ai_agent_id,omitempty" gorm:"type:uuid"`
	CreatedAt     time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "whatsapp_conversations"
}

// Message is a single message in a conversation. Immutable once created.
// ProviderMessageID is the messaging provider's id for inbound messages and
// doubles as the idempotency key for webhook redelivery.
type Message struct {
	ID                string           `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID    string           `json:"conversation_id" gorm:"type:uuid;not null;index"`
	Direction         MessageDirection `json:"direction" gorm:"type:varchar(8);not null"`
	Content           string           `json:"content" gorm:"type:text;not null"`
	MediaURL          *string          `json:"media_url,omitempty" gorm:"type:text"`
	AIGenerated       bool             `json:"ai_generated" gorm:"default:false"`
	ProviderMessageID *string          `json:"provider_message_id,omitempty" gorm:"type:varchar(128);uniqueIndex"`
	Timestamp         time.Time        `json:"timestamp" gorm:"not null;index"`
	CreatedAt         time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "whatsapp_messages"
}

// SendMessageRequest is the payload for sending an outbound message from
// the dashboard.
type SendMessageRequest struct {
	Content string `json:"content"`
}
