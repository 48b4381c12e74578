package domain

import (
	"time"
)

// AgentType distinguishes AI agents from human operators.
type AgentType string

const (
	AgentTypeAI    AgentType = "ai"
	AgentTypeHuman AgentType = "human"
)

// AgentStatus represents agent availability.
type AgentStatus string

const (
	AgentStatusAvailable AgentStatus = "available"
	AgentStatusBusy      AgentStatus = "busy"
	AgentStatusOffline   AgentStatus = "offline"
	AgentStatusOnline    AgentStatus = "online"
)

// Agent represents an AI or human call-center agent.
type Agent struct {
	ID             string      `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string      `json:"name" gorm:"type:varchar(255);not null"`
	Type           AgentType   `json:"type" gorm:"type:varchar(8);not null;index"`
	Status         AgentStatus `json:"status" gorm:"type:varchar(16);not null"`
	Specialization string      `json:"specialization" gorm:"type:varchar(255)"`
	PromptTemplate *string     `json:"prompt_template,omitempty" gorm:"type:text"`
	VoiceID        *string     `json:"voice_id,omitempty" gorm:"type:varchar(64)"`
	CreatedAt      time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Agent) TableName() string {
	return "agents"
}

// CreateAgentRequest is the payload for creating an agent.
type CreateAgentRequest struct {
	Name           string    `json:"name"`
	Type           AgentType `json:"type"`
	Specialization string    `json:"specialization,omitempty"`
	PromptTemplate *string   `json:"prompt_template,omitempty"`
	VoiceID        *string   `json:"voice_id,omitempty"`
}

// UpdateAgentRequest is the payload for updating an agent. Nil fields are
// left unchanged.
type UpdateAgentRequest struct {
	Name           *string      `json:"name,omitempty"`
	Status         *AgentStatus `json:"status,omitempty"`
	Specialization *string      `json:"specialization,omitempty"`
	PromptTemplate *string      `json:"prompt_template,omitempty"`
	VoiceID        *string      `json:"voice_id,omitempty"`
}
