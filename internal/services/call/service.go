package call

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/twilio"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher pushes realtime events to dashboard clients.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Service owns the call lifecycle: outbound initiation, provider status
// callbacks, and manual end/abandon actions.
type Service struct {
	repos  repository.RepositoryManager
	placer twilio.CallPlacer
	events EventPublisher
}

// NewService creates a call service. events may be nil.
func NewService(repos repository.RepositoryManager, placer twilio.CallPlacer, events EventPublisher) *Service {
	return &Service{
		repos:  repos,
		placer: placer,
		events: events,
	}
}

// Initiate places an outbound call and persists the active call record.
// No record is written when the provider rejects the call.
func (s *Service) Initiate(ctx context.Context, req *domain.InitiateCallRequest) (*domain.Call, error) {
	if req.PhoneNumber == "" {
		return nil, fmt.Errorf("phone_number is required")
	}
	if !phonePattern.MatchString(req.PhoneNumber) {
		return nil, fmt.Errorf("invalid phone number: %s", req.PhoneNumber)
	}

	call := &domain.Call{
		ID:           uuid.New().String(),
		CallerNumber: req.PhoneNumber,
		CallerName:   req.ContactName,
		Status:       domain.CallStatusActive,
		StartTime:    time.Now(),
	}

	if req.AgentID != nil && *req.AgentID != "" {
		agent, err := s.repos.Agents().GetByID(ctx, *req.AgentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve agent: %w", err)
		}
		if agent == nil {
			return nil, fmt.Errorf("agent not found: %s", *req.AgentID)
		}
		// A call is handled by either an AI agent or a human, never both.
		switch agent.Type {
		case domain.AgentTypeAI:
			call.AIAgentID = &agent.ID
		case domain.AgentTypeHuman:
			call.HumanAgentID = &agent.ID
		default:
			return nil, fmt.Errorf("agent %s has unknown type %q", agent.ID, agent.Type)
		}
	}

	sid, err := s.placer.PlaceCall(ctx, req.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to place call: %w", err)
	}
	call.TwilioCallSID = sid

	if err := s.repos.Calls().Create(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to persist call: %w", err)
	}

	logger.Base().Info("call initiated",
		zap.String("call_id", call.ID),
		zap.String("call_sid", sid),
		zap.String("to", req.PhoneNumber),
	)
	s.publish("call.updated", call)
	return call, nil
}

// ProcessStatusCallback applies a provider status callback to the matching
// call record. Callbacks for unknown SIDs and unknown statuses are ignored;
// the receiver always acknowledges.
//
// Status mapping:
//
//	in-progress                                    -> active
//	completed, busy, no-answer, failed, canceled   -> completed (+ end time, duration)
//	anything else                                  -> no change
func (s *Service) ProcessStatusCallback(ctx context.Context, callSID, callStatus string, durationSec *int) error {
	if callSID == "" {
		return nil
	}

	call, err := s.repos.Calls().GetByTwilioSID(ctx, callSID)
	if err != nil {
		return fmt.Errorf("failed to look up call by sid: %w", err)
	}
	if call == nil {
		logger.Base().Info("status callback for unknown call sid, ignoring",
			zap.String("call_sid", callSID),
			zap.String("call_status", callStatus),
		)
		return nil
	}

	switch callStatus {
	case "in-progress":
		call.Status = domain.CallStatusActive
	case "completed", "busy", "no-answer", "failed", "canceled":
		call.Status = domain.CallStatusCompleted
		now := time.Now()
		call.EndTime = &now
		if durationSec != nil {
			call.Duration = durationSec
		}
	default:
		logger.Base().Debug("unhandled call status, record unchanged",
			zap.String("call_sid", callSID),
			zap.String("call_status", callStatus),
		)
		return nil
	}

	if err := s.repos.Calls().Update(ctx, call); err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}

	logger.Base().Info("call status updated",
		zap.String("call_id", call.ID),
		zap.String("call_sid", callSID),
		zap.String("status", string(call.Status)),
	)
	s.publish("call.updated", call)
	return nil
}

// End marks an active call completed from the dashboard.
func (s *Service) End(ctx context.Context, id string) (*domain.Call, error) {
	return s.finish(ctx, id, domain.CallStatusCompleted)
}

// Abandon marks an active call abandoned from the dashboard.
func (s *Service) Abandon(ctx context.Context, id string) (*domain.Call, error) {
	return s.finish(ctx, id, domain.CallStatusAbandoned)
}

func (s *Service) finish(ctx context.Context, id string, status domain.CallStatus) (*domain.Call, error) {
	call, err := s.repos.Calls().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	if call == nil {
		return nil, fmt.Errorf("call not found: %s", id)
	}
	if call.Status != domain.CallStatusActive {
		return nil, fmt.Errorf("call %s is not active", id)
	}

	now := time.Now()
	call.Status = status
	call.EndTime = &now
	if call.Duration == nil {
		elapsed := int(now.Sub(call.StartTime).Seconds())
		call.Duration = &elapsed
	}

	if err := s.repos.Calls().Update(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to update call: %w", err)
	}
	s.publish("call.updated", call)
	return call, nil
}

// Get returns a call by id, nil when absent.
func (s *Service) Get(ctx context.Context, id string) (*domain.Call, error) {
	return s.repos.Calls().GetByID(ctx, id)
}

// List returns calls filtered by status. An empty status returns all.
func (s *Service) List(ctx context.Context, status domain.CallStatus, limit, offset int) ([]*domain.Call, error) {
	return s.repos.Calls().List(ctx, status, limit, offset)
}

// Metrics aggregates dashboard counters for calls since the cutoff.
func (s *Service) Metrics(ctx context.Context, since time.Time) (*repository.CallMetrics, error) {
	return s.repos.Calls().Metrics(ctx, since)
}

func (s *Service) publish(eventType string, data interface{}) {
	if s.events != nil {
		s.events.Publish(eventType, data)
	}
}
