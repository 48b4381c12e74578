package domain

import (
	"time"
)

// CallStatus represents the lifecycle state of a call record.
type CallStatus string

const (
	CallStatusActive    CallStatus = "active"
	CallStatusCompleted CallStatus = "completed"
	CallStatusAbandoned CallStatus = "abandoned"
)

// Call represents a persisted call record. Call rows are created when a call
// is initiated and mutated by provider callbacks and manual end/abandon
// actions; they are never physically deleted.
//
// At most one of AIAgentID / HumanAgentID is set at a time; the service
// layer enforces this on create and assignment.
type Call struct {
	ID             string     `json:"id" gorm:"type:uuid;primaryKey"`
	CallerNumber   string     `json:"caller_number" gorm:"type:varchar(32);not null;index"`
	CallerName     string     `json:"caller_name" gorm:"type:varchar(255)"`
	Status         CallStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	StartTime      time.Time  `json:"start_time" gorm:"not null"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Duration       *int       `json:"duration,omitempty"` // seconds, provider-reported
	AIAgentID      *string    `json:"ai_agent_id,omitempty" gorm:"type:uuid"`
	HumanAgentID   *string    `json:"human_agent_id,omitempty" gorm:"type:uuid"`
	TwilioCallSID  string     `json:"twilio_call_sid" gorm:"type:varchar(64);uniqueIndex"`
	RecordingURL   *string    `json:"recording_url,omitempty" gorm:"type:text"`
	SentimentScore *float64   `json:"sentiment_score,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Call) TableName() string {
	return "calls"
}

// InitiateCallRequest is the payload for placing an outbound call.
type InitiateCallRequest struct {
	PhoneNumber string  `json:"phone_number"`
	ContactName string  `json:"contact_name,omitempty"`
	AgentID     *string `json:"agent_id,omitempty"`
}
