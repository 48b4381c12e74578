// Package repositorytest provides an in-memory RepositoryManager for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/google/uuid"
)

// FakeManager implements repository.RepositoryManager with in-memory maps.
// All repositories share one mutex; good enough for tests.
type FakeManager struct {
	mu sync.Mutex

	calls         map[string]*domain.Call
	agents        map[string]*domain.Agent
	contacts      map[string]*domain.Contact
	conversations map[string]*domain.Conversation
	messages      []*domain.Message
	templates     map[string]*domain.Template
	settings      *domain.Settings

	messageCreateErr error
}

// NewFakeManager creates an empty fake.
func NewFakeManager() *FakeManager {
	return &FakeManager{
		calls:         make(map[string]*domain.Call),
		agents:        make(map[string]*domain.Agent),
		contacts:      make(map[string]*domain.Contact),
		conversations: make(map[string]*domain.Conversation),
		templates:     make(map[string]*domain.Template),
	}
}

func (f *FakeManager) Calls() repository.CallRepository                 { return &fakeCallRepo{f} }
func (f *FakeManager) Agents() repository.AgentRepository               { return &fakeAgentRepo{f} }
func (f *FakeManager) Contacts() repository.ContactRepository           { return &fakeContactRepo{f} }
func (f *FakeManager) Conversations() repository.ConversationRepository { return &fakeConversationRepo{f} }
func (f *FakeManager) Messages() repository.MessageRepository           { return &fakeMessageRepo{f} }
func (f *FakeManager) Templates() repository.TemplateRepository         { return &fakeTemplateRepo{f} }
func (f *FakeManager) Settings() repository.SettingsRepository          { return &fakeSettingsRepo{f} }

// WithTx runs the callback against the same in-memory state.
func (f *FakeManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.RepositoryManager) error) error {
	return fn(ctx, f)
}

func (f *FakeManager) Ping(ctx context.Context) error { return nil }
func (f *FakeManager) Close() error                   { return nil }

// SeedAgent stores an agent directly.
func (f *FakeManager) SeedAgent(agent *domain.Agent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[agent.ID] = agent
}

// SeedCall stores a call directly.
func (f *FakeManager) SeedCall(call *domain.Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call.ID] = call
}

// SeedConversation stores a conversation directly.
func (f *FakeManager) SeedConversation(conversation *domain.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[conversation.ID] = conversation
}

// SeedMessage stores a message directly.
func (f *FakeManager) SeedMessage(message *domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

// SeedTemplate stores a template directly.
func (f *FakeManager) SeedTemplate(template *domain.Template) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[template.ID] = template
}

// SeedSettings stores the settings row directly.
func (f *FakeManager) SeedSettings(settings *domain.Settings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = settings
}

// FailNextMessageCreate makes the next message insert return err.
func (f *FakeManager) FailNextMessageCreate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCreateErr = err
}

// MessageCount returns the number of stored messages.
func (f *FakeManager) MessageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// AllMessages returns a snapshot of stored messages.
func (f *FakeManager) AllMessages() []*domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

type fakeCallRepo struct{ f *FakeManager }

func (r *fakeCallRepo) Create(ctx context.Context, call *domain.Call) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	c := *call
	r.f.calls[call.ID] = &c
	return nil
}

func (r *fakeCallRepo) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if call, ok := r.f.calls[id]; ok {
		c := *call
		return &c, nil
	}
	return nil, nil
}

func (r *fakeCallRepo) GetByTwilioSID(ctx context.Context, sid string) (*domain.Call, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, call := range r.f.calls {
		if call.TwilioCallSID == sid {
			c := *call
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeCallRepo) Update(ctx context.Context, call *domain.Call) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.calls[call.ID]; !ok {
		return fmt.Errorf("call not found: %s", call.ID)
	}
	c := *call
	r.f.calls[call.ID] = &c
	return nil
}

func (r *fakeCallRepo) List(ctx context.Context, status domain.CallStatus, limit, offset int) ([]*domain.Call, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Call
	for _, call := range r.f.calls {
		if status != "" && call.Status != status {
			continue
		}
		c := *call
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *fakeCallRepo) Metrics(ctx context.Context, since time.Time) (*repository.CallMetrics, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	metrics := &repository.CallMetrics{}
	var totalDuration, durationCount int
	for _, call := range r.f.calls {
		switch call.Status {
		case domain.CallStatusActive:
			metrics.ActiveCount++
		case domain.CallStatusCompleted:
			if call.StartTime.After(since) {
				metrics.CompletedCount++
			}
		case domain.CallStatusAbandoned:
			if call.StartTime.After(since) {
				metrics.AbandonedCount++
			}
		}
		if call.Duration != nil && call.StartTime.After(since) {
			totalDuration += *call.Duration
			durationCount++
		}
	}
	if durationCount > 0 {
		metrics.AverageDurationSec = float64(totalDuration) / float64(durationCount)
	}
	return metrics, nil
}

type fakeAgentRepo struct{ f *FakeManager }

func (r *fakeAgentRepo) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}
	if req.Type != domain.AgentTypeAI && req.Type != domain.AgentTypeHuman {
		return nil, fmt.Errorf("invalid agent type: %q", req.Type)
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	agent := &domain.Agent{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Type:           req.Type,
		Status:         domain.AgentStatusOffline,
		Specialization: req.Specialization,
		PromptTemplate: req.PromptTemplate,
		VoiceID:        req.VoiceID,
	}
	r.f.agents[agent.ID] = agent
	return agent, nil
}

func (r *fakeAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if agent, ok := r.f.agents[id]; ok {
		a := *agent
		return &a, nil
	}
	return nil, nil
}

func (r *fakeAgentRepo) GetAll(ctx context.Context) ([]*domain.Agent, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Agent
	for _, agent := range r.f.agents {
		a := *agent
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeAgentRepo) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	agent, ok := r.f.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", id)
	}
	if req.Name != nil {
		agent.Name = *req.Name
	}
	if req.Status != nil {
		agent.Status = *req.Status
	}
	if req.Specialization != nil {
		agent.Specialization = *req.Specialization
	}
	if req.PromptTemplate != nil {
		agent.PromptTemplate = req.PromptTemplate
	}
	if req.VoiceID != nil {
		agent.VoiceID = req.VoiceID
	}
	a := *agent
	return &a, nil
}

func (r *fakeAgentRepo) Delete(ctx context.Context, id string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	delete(r.f.agents, id)
	return nil
}

type fakeContactRepo struct{ f *FakeManager }

func (r *fakeContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	if contact.Phone == "" {
		return fmt.Errorf("contact phone cannot be empty")
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	c := *contact
	r.f.contacts[contact.ID] = &c
	return nil
}

func (r *fakeContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if contact, ok := r.f.contacts[id]; ok {
		c := *contact
		return &c, nil
	}
	return nil, nil
}

func (r *fakeContactRepo) Search(ctx context.Context, query string, limit, offset int) ([]*domain.Contact, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Contact
	for _, contact := range r.f.contacts {
		c := *contact
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeContactRepo) Update(ctx context.Context, contact *domain.Contact) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	c := *contact
	r.f.contacts[contact.ID] = &c
	return nil
}

func (r *fakeContactRepo) Delete(ctx context.Context, id string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	delete(r.f.contacts, id)
	return nil
}

func (r *fakeContactRepo) TouchLastContact(ctx context.Context, phone string, at time.Time) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, contact := range r.f.contacts {
		if contact.Phone == phone {
			t := at
			contact.LastContactAt = &t
		}
	}
	return nil
}

type fakeConversationRepo struct{ f *FakeManager }

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *domain.Conversation) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	c := *conversation
	r.f.conversations[conversation.ID] = &c
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if conversation, ok := r.f.conversations[id]; ok {
		c := *conversation
		return &c, nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) GetByPhoneNumber(ctx context.Context, phone string) (*domain.Conversation, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, conversation := range r.f.conversations {
		if conversation.PhoneNumber == phone {
			c := *conversation
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, conversation *domain.Conversation) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.conversations[conversation.ID]; !ok {
		return fmt.Errorf("conversation not found: %s", conversation.ID)
	}
	c := *conversation
	r.f.conversations[conversation.ID] = &c
	return nil
}

func (r *fakeConversationRepo) List(ctx context.Context, limit, offset int) ([]*domain.Conversation, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Conversation
	for _, conversation := range r.f.conversations {
		c := *conversation
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *fakeConversationRepo) MarkRead(ctx context.Context, id string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if conversation, ok := r.f.conversations[id]; ok {
		conversation.UnreadCount = 0
	}
	return nil
}

func (r *fakeConversationRepo) CountOpen(ctx context.Context) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var count int64
	for _, conversation := range r.f.conversations {
		if conversation.Status == domain.ConversationStatusActive {
			count++
		}
	}
	return count, nil
}

type fakeMessageRepo struct{ f *FakeManager }

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.messageCreateErr != nil {
		err := r.f.messageCreateErr
		r.f.messageCreateErr = nil
		return err
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.ProviderMessageID != nil {
		for _, existing := range r.f.messages {
			if existing.ProviderMessageID != nil && *existing.ProviderMessageID == *message.ProviderMessageID {
				return fmt.Errorf("duplicate provider message id: %s", *message.ProviderMessageID)
			}
		}
	}
	m := *message
	r.f.messages = append(r.f.messages, &m)
	return nil
}

func (r *fakeMessageRepo) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.Message, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, message := range r.f.messages {
		if message.ProviderMessageID != nil && *message.ProviderMessageID == providerMessageID {
			m := *message
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Message
	for _, message := range r.f.messages {
		if message.ConversationID == conversationID {
			m := *message
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *fakeMessageRepo) LastN(ctx context.Context, conversationID string, n int) ([]*domain.Message, error) {
	all, err := r.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

type fakeTemplateRepo struct{ f *FakeManager }

func (r *fakeTemplateRepo) Create(ctx context.Context, template *domain.Template) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.Status == "" {
		template.Status = domain.TemplateStatusPending
	}
	if template.Language == "" {
		template.Language = "en"
	}
	t := *template
	r.f.templates[template.ID] = &t
	return nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if template, ok := r.f.templates[id]; ok {
		t := *template
		return &t, nil
	}
	return nil, nil
}

func (r *fakeTemplateRepo) GetAll(ctx context.Context) ([]*domain.Template, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*domain.Template
	for _, template := range r.f.templates {
		t := *template
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTemplateRepo) Update(ctx context.Context, template *domain.Template) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.templates[template.ID]; !ok {
		return fmt.Errorf("template not found: %s", template.ID)
	}
	t := *template
	r.f.templates[template.ID] = &t
	return nil
}

func (r *fakeTemplateRepo) Delete(ctx context.Context, id string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	delete(r.f.templates, id)
	return nil
}

type fakeSettingsRepo struct{ f *FakeManager }

func (r *fakeSettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.settings == nil {
		r.f.settings = &domain.Settings{ID: domain.SettingsID, AutoReplyEnabled: true}
	}
	s := *r.f.settings
	return &s, nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, settings *domain.Settings) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	settings.ID = domain.SettingsID
	s := *settings
	r.f.settings = &s
	return nil
}
