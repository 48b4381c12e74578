package repository

import (
	"context"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"gorm.io/gorm"
)

// CallRepository defines persistence operations for call records.
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	GetByTwilioSID(ctx context.Context, sid string) (*domain.Call, error)
	Update(ctx context.Context, call *domain.Call) error
	List(ctx context.Context, status domain.CallStatus, limit, offset int) ([]*domain.Call, error)
	Metrics(ctx context.Context, since time.Time) (*CallMetrics, error)
}

// CallMetrics aggregates dashboard counters over the calls table.
type CallMetrics struct {
	ActiveCount        int64   `json:"active_count"`
	CompletedCount     int64   `json:"completed_count"`
	AbandonedCount     int64   `json:"abandoned_count"`
	AverageDurationSec float64 `json:"average_duration_sec"`
}

// AgentRepository defines persistence operations for agents.
type AgentRepository interface {
	Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetAll(ctx context.Context) ([]*domain.Agent, error)
	Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error)
	Delete(ctx context.Context, id string) error
}

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, id string) error
	TouchLastContact(ctx context.Context, phone string, at time.Time) error
}

// ConversationRepository defines persistence operations for messaging threads.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*domain.Conversation, error)
	Update(ctx context.Context, conversation *domain.Conversation) error
	List(ctx context.Context, limit, offset int) ([]*domain.Conversation, error)
	MarkRead(ctx context.Context, id string) error
	CountOpen(ctx context.Context) (int64, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	LastN(ctx context.Context, conversationID string, n int) ([]*domain.Message, error)
}

// TemplateRepository defines persistence operations for message templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) error
	GetByID(ctx context.Context, id string) (*domain.Template, error)
	GetAll(ctx context.Context) ([]*domain.Template, error)
	Update(ctx context.Context, template *domain.Template) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository defines persistence operations for the singleton
// settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, settings *domain.Settings) error
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Calls() CallRepository
	Agents() AgentRepository
	Contacts() ContactRepository
	Conversations() ConversationRepository
	Messages() MessageRepository
	Templates() TemplateRepository
	Settings() SettingsRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db               *gorm.DB
	callRepo         *GormCallRepository
	agentRepo        *GormAgentRepository
	contactRepo      *GormContactRepository
	conversationRepo *GormConversationRepository
	messageRepo      *GormMessageRepository
	templateRepo     *GormTemplateRepository
	settingsRepo     *GormSettingsRepository
}

// NewGormRepositoryManager creates a new GORM repository manager
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:               db,
		callRepo:         NewGormCallRepository(db),
		agentRepo:        NewGormAgentRepository(db),
		contactRepo:      NewGormContactRepository(db),
		conversationRepo: NewGormConversationRepository(db),
		messageRepo:      NewGormMessageRepository(db),
		templateRepo:     NewGormTemplateRepository(db),
		settingsRepo:     NewGormSettingsRepository(db),
	}
}

func (m *GormRepositoryManager) Calls() CallRepository                 { return m.callRepo }
func (m *GormRepositoryManager) Agents() AgentRepository               { return m.agentRepo }
func (m *GormRepositoryManager) Contacts() ContactRepository           { return m.contactRepo }
func (m *GormRepositoryManager) Conversations() ConversationRepository { return m.conversationRepo }
func (m *GormRepositoryManager) Messages() MessageRepository           { return m.messageRepo }
func (m *GormRepositoryManager) Templates() TemplateRepository         { return m.templateRepo }
func (m *GormRepositoryManager) Settings() SettingsRepository          { return m.settingsRepo }

// WithTx executes a function within a database transaction. The repositories
// exposed through the callback manager all operate on the transaction.
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormRepositoryManager(tx))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
