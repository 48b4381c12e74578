package repository

import (
	"context"
	"fmt"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgentRepository handles database operations for agents.
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new agent repository.
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create creates an agent from a create request. New agents start offline.
func (r *GormAgentRepository) Create(ctx context.Context, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}
	if req.Type != domain.AgentTypeAI && req.Type != domain.AgentTypeHuman {
		return nil, fmt.Errorf("invalid agent type: %q", req.Type)
	}

	agent := &domain.Agent{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Type:           req.Type,
		Status:         domain.AgentStatusOffline,
		Specialization: req.Specialization,
		PromptTemplate: req.PromptTemplate,
		VoiceID:        req.VoiceID,
	}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return agent, nil
}

// GetByID retrieves an agent by ID. Returns (nil, nil) when not found.
func (r *GormAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetAll returns every agent ordered by name.
func (r *GormAgentRepository) GetAll(ctx context.Context) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

// Update applies the non-nil fields of the update request.
func (r *GormAgentRepository) Update(ctx context.Context, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	agent, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
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

	if err := r.db.WithContext(ctx).Save(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}
	return agent, nil
}

// Delete removes an agent.
func (r *GormAgentRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Agent{}).Error; err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	return nil
}
