package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConversationRepository handles database operations for conversations.
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new conversation repository.
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// Create persists a new conversation.
func (r *GormConversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	if conversation.PhoneNumber == "" {
		return fmt.Errorf("conversation phone number cannot be empty")
	}
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.Status == "" {
		conversation.Status = domain.ConversationStatusActive
	}
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// GetByID retrieves a conversation by ID. Returns (nil, nil) when not found.
func (r *GormConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conversation domain.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

// GetByPhoneNumber retrieves the conversation for a counterpart phone
// number. Returns (nil, nil) when not found.
func (r *GormConversationRepository) GetByPhoneNumber(ctx context.Context, phone string) (*domain.Conversation, error) {
	var conversation domain.Conversation
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&conversation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation by phone: %w", err)
	}
	return &conversation, nil
}

// Update saves the full conversation record.
func (r *GormConversationRepository) Update(ctx context.Context, conversation *domain.Conversation) error {
	if err := r.db.WithContext(ctx).Save(conversation).Error; err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

// List returns conversations ordered by most recent activity.
func (r *GormConversationRepository) List(ctx context.Context, limit, offset int) ([]*domain.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	var conversations []*domain.Conversation
	if err := r.db.WithContext(ctx).
		Order("last_message_at DESC").
		Limit(limit).Offset(offset).
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// MarkRead resets the unread counter.
func (r *GormConversationRepository) MarkRead(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"unread_count": 0, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// CountOpen counts conversations that are not closed.
func (r *GormConversationRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("status = ?", domain.ConversationStatusActive).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count open conversations: %w", err)
	}
	return count, nil
}

// GormMessageRepository handles database operations for messages.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a new message.
func (r *GormMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message.ConversationID == "" {
		return fmt.Errorf("message conversation id cannot be empty")
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByProviderMessageID retrieves a message by the provider's id.
// Returns (nil, nil) when not found.
func (r *GormMessageRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error) {
	var message domain.Message
	if err := r.db.WithContext(ctx).Where("provider_message_id = ?", providerMessageID).First(&message).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message by provider id: %w", err)
	}
	return &message, nil
}

// ListByConversation returns all messages of a conversation, oldest first.
func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	var messages []*domain.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// LastN returns the n most recent messages of a conversation in
// chronological order.
func (r *GormMessageRepository) LastN(ctx context.Context, conversationID string, n int) ([]*domain.Message, error) {
	var messages []*domain.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Limit(n).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
