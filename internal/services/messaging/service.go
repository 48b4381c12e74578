package messaging

import (
	"context"
	"fmt"
	"time"

	adapters "github.com/gabotrixinc/call-scribe-nexus-sub001/internal/adapters/http"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher pushes realtime events to dashboard clients.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

// SeenMarker remembers provider message ids for redelivery suppression.
type SeenMarker interface {
	Seen(ctx context.Context, identifier string) (bool, error)
	MarkSeen(ctx context.Context, identifier string, ttl time.Duration) (bool, error)
}

// seenTTL bounds how long inbound provider message ids are remembered for
// webhook redelivery suppression. The unique index on provider_message_id
// backstops expiry.
const seenTTL = 24 * time.Hour

// historyWindow is how many recent messages feed the reply model.
const historyWindow = 5

// InboundMessage is one provider-delivered message after envelope parsing.
type InboundMessage struct {
	From              string
	ProfileName       string
	ProviderMessageID string
	Content           string
	MediaURL          *string
	Timestamp         time.Time
}

// Service owns messaging threads: inbound ingest, AI auto-replies, and
// outbound sends from the dashboard.
type Service struct {
	repos   repository.RepositoryManager
	sender  adapters.WhatsAppSender
	replier adapters.ReplyGenerator
	seen    SeenMarker
	events  EventPublisher
}

// NewService creates a messaging service. seen and events may be nil.
func NewService(repos repository.RepositoryManager, sender adapters.WhatsAppSender, replier adapters.ReplyGenerator, seen SeenMarker, events EventPublisher) *Service {
	return &Service{
		repos:   repos,
		sender:  sender,
		replier: replier,
		seen:    seen,
		events:  events,
	}
}

// Ingest records one inbound message, creating its conversation when needed.
// Redelivered messages (same provider message id) are dropped without side
// effects. Returns the stored message, or nil when the message was a
// duplicate.
func (s *Service) Ingest(ctx context.Context, inbound *InboundMessage) (*domain.Message, error) {
	if inbound.From == "" || inbound.ProviderMessageID == "" {
		return nil, fmt.Errorf("inbound message missing sender or provider message id")
	}

	// The id is only claimed after the transaction commits, so a failed
	// ingest does not suppress the provider's redelivery.
	if s.seen != nil {
		seen, err := s.seen.Seen(ctx, inbound.ProviderMessageID)
		if err != nil {
			logger.Base().Warn("idempotency check unavailable, falling back to database",
				zap.Error(err))
		} else if seen {
			logger.Base().Info("duplicate inbound message dropped",
				zap.String("provider_message_id", inbound.ProviderMessageID))
			return nil, nil
		}
	}

	existing, err := s.repos.Messages().GetByProviderMessageID(ctx, inbound.ProviderMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate message: %w", err)
	}
	if existing != nil {
		logger.Base().Info("duplicate inbound message dropped",
			zap.String("provider_message_id", inbound.ProviderMessageID))
		return nil, nil
	}

	var message *domain.Message
	var conversation *domain.Conversation
	err = s.repos.WithTx(ctx, func(ctx context.Context, repos repository.RepositoryManager) error {
		conv, err := repos.Conversations().GetByPhoneNumber(ctx, inbound.From)
		if err != nil {
			return fmt.Errorf("failed to look up conversation: %w", err)
		}
		if conv == nil {
			conv = &domain.Conversation{
				ID:          uuid.New().String(),
				PhoneNumber: inbound.From,
				ContactName: inbound.ProfileName,
				Status:      domain.ConversationStatusActive,
			}
			if err := repos.Conversations().Create(ctx, conv); err != nil {
				return fmt.Errorf("failed to create conversation: %w", err)
			}
		}

		msg := &domain.Message{
			ID:                uuid.New().String(),
			ConversationID:    conv.ID,
			Direction:         domain.DirectionInbound,
			Content:           inbound.Content,
			MediaURL:          inbound.MediaURL,
			ProviderMessageID: &inbound.ProviderMessageID,
			Timestamp:         inbound.Timestamp,
		}
		if err := repos.Messages().Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to store message: %w", err)
		}

		conv.LastMessageAt = inbound.Timestamp
		conv.UnreadCount++
		conv.Status = domain.ConversationStatusActive
		if conv.ContactName == "" && inbound.ProfileName != "" {
			conv.ContactName = inbound.ProfileName
		}
		if err := repos.Conversations().Update(ctx, conv); err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}

		message = msg
		conversation = conv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.seen != nil {
		if _, err := s.seen.MarkSeen(ctx, inbound.ProviderMessageID, seenTTL); err != nil {
			logger.Base().Warn("failed to record idempotency key", zap.Error(err))
		}
	}

	if err := s.repos.Contacts().TouchLastContact(ctx, inbound.From, inbound.Timestamp); err != nil {
		logger.Base().Warn("failed to touch contact last-contact time", zap.Error(err))
	}

	logger.Base().Info("inbound message stored",
		zap.String("conversation_id", conversation.ID),
		zap.String("message_id", message.ID),
	)
	s.publish("message.created", message)
	s.publish("conversation.updated", conversation)

	s.maybeAutoReply(ctx, conversation)
	return message, nil
}

// maybeAutoReply generates and sends an AI reply when the conversation has an
// assigned AI agent and auto-reply is enabled. Failures are logged and
// swallowed; the inbound message is already committed.
func (s *Service) maybeAutoReply(ctx context.Context, conversation *domain.Conversation) {
	if s.replier == nil || s.sender == nil {
		return
	}
	if conversation.AIAgentID == nil || *conversation.AIAgentID == "" {
		return
	}

	settings, err := s.repos.Settings().Get(ctx)
	if err != nil {
		logger.Base().Warn("auto-reply skipped: failed to load settings", zap.Error(err))
		return
	}
	if !settings.AutoReplyEnabled {
		return
	}

	agent, err := s.repos.Agents().GetByID(ctx, *conversation.AIAgentID)
	if err != nil || agent == nil || agent.Type != domain.AgentTypeAI {
		logger.Base().Warn("auto-reply skipped: assigned agent unavailable",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err))
		return
	}

	history, err := s.repos.Messages().LastN(ctx, conversation.ID, historyWindow)
	if err != nil {
		logger.Base().Warn("auto-reply skipped: failed to load history", zap.Error(err))
		return
	}

	turns := make([]adapters.ChatTurn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Direction == domain.DirectionOutbound {
			role = "model"
		}
		turns = append(turns, adapters.ChatTurn{Role: role, Content: m.Content})
	}

	persona := ""
	if agent.PromptTemplate != nil {
		persona = *agent.PromptTemplate
	}

	reply, err := s.replier.GenerateReply(ctx, persona, turns)
	if err != nil {
		logger.Base().Error("auto-reply generation failed",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err))
		return
	}
	if reply == "" {
		return
	}

	providerID, err := s.sender.SendText(ctx, conversation.PhoneNumber, reply)
	if err != nil {
		logger.Base().Error("auto-reply send failed",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err))
		return
	}

	if _, err := s.storeOutbound(ctx, conversation, reply, providerID, true); err != nil {
		logger.Base().Error("failed to store auto-reply", zap.Error(err))
	}
}

// Send delivers a dashboard-composed text message on an existing conversation.
func (s *Service) Send(ctx context.Context, conversationID string, req *domain.SendMessageRequest) (*domain.Message, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("content is required")
	}
	conversation, err := s.repos.Conversations().GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found: %s", conversationID)
	}

	providerID, err := s.sender.SendText(ctx, conversation.PhoneNumber, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return s.storeOutbound(ctx, conversation, req.Content, providerID, false)
}

// SendTemplate delivers an approved template to a phone number, creating the
// conversation when none exists.
func (s *Service) SendTemplate(ctx context.Context, phoneNumber, templateID string, parameters []string) (*domain.Message, error) {
	template, err := s.repos.Templates().GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if template == nil {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}
	if template.Status != domain.TemplateStatusApproved {
		return nil, fmt.Errorf("template %s is not approved", template.Name)
	}

	providerID, err := s.sender.SendTemplate(ctx, phoneNumber, template.Name, template.Language, parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to send template: %w", err)
	}

	conversation, err := s.repos.Conversations().GetByPhoneNumber(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}
	if conversation == nil {
		conversation = &domain.Conversation{
			ID:          uuid.New().String(),
			PhoneNumber: phoneNumber,
			Status:      domain.ConversationStatusActive,
		}
		if err := s.repos.Conversations().Create(ctx, conversation); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	}

	return s.storeOutbound(ctx, conversation, template.Content, providerID, false)
}

func (s *Service) storeOutbound(ctx context.Context, conversation *domain.Conversation, content, providerID string, aiGenerated bool) (*domain.Message, error) {
	now := time.Now()
	message := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		Direction:      domain.DirectionOutbound,
		Content:        content,
		AIGenerated:    aiGenerated,
		Timestamp:      now,
	}
	if providerID != "" {
		message.ProviderMessageID = &providerID
	}
	if err := s.repos.Messages().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to store outbound message: %w", err)
	}

	conversation.LastMessageAt = now
	if err := s.repos.Conversations().Update(ctx, conversation); err != nil {
		logger.Base().Warn("failed to bump conversation last-message time", zap.Error(err))
	}

	s.publish("message.created", message)
	s.publish("conversation.updated", conversation)
	return message, nil
}

func (s *Service) publish(eventType string, data interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}
