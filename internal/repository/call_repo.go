package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCallRepository handles database operations for call records.
type GormCallRepository struct {
	db *gorm.DB
}

// NewGormCallRepository creates a new call repository.
func NewGormCallRepository(db *gorm.DB) *GormCallRepository {
	return &GormCallRepository{db: db}
}

// Create persists a new call record.
func (r *GormCallRepository) Create(ctx context.Context, call *domain.Call) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.StartTime.IsZero() {
		call.StartTime = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// GetByID retrieves a call by ID. Returns (nil, nil) when not found.
func (r *GormCallRepository) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// GetByTwilioSID retrieves a call by provider call identifier.
// Returns (nil, nil) when not found.
func (r *GormCallRepository) GetByTwilioSID(ctx context.Context, sid string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("twilio_call_sid = ?", sid).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call by sid: %w", err)
	}
	return &call, nil
}

// Update saves the full call record.
func (r *GormCallRepository) Update(ctx context.Context, call *domain.Call) error {
	if err := r.db.WithContext(ctx).Save(call).Error; err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}
	return nil
}

// List returns calls, newest first, optionally filtered by status.
func (r *GormCallRepository) List(ctx context.Context, status domain.CallStatus, limit, offset int) ([]*domain.Call, error) {
	query := r.db.WithContext(ctx).Model(&domain.Call{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit <= 0 {
		limit = 50
	}

	var calls []*domain.Call
	if err := query.Order("start_time DESC").Limit(limit).Offset(offset).Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	return calls, nil
}

// Metrics aggregates dashboard counters over calls started since the cutoff.
// The active count ignores the cutoff: a call is active regardless of when
// it started.
func (r *GormCallRepository) Metrics(ctx context.Context, since time.Time) (*CallMetrics, error) {
	metrics := &CallMetrics{}

	if err := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("status = ?", domain.CallStatusActive).
		Count(&metrics.ActiveCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count active calls: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("status = ? AND start_time >= ?", domain.CallStatusCompleted, since).
		Count(&metrics.CompletedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed calls: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("status = ? AND start_time >= ?", domain.CallStatusAbandoned, since).
		Count(&metrics.AbandonedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count abandoned calls: %w", err)
	}

	var avg *float64
	if err := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("status = ? AND start_time >= ? AND duration IS NOT NULL", domain.CallStatusCompleted, since).
		Select("AVG(duration)").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average call duration: %w", err)
	}
	if avg != nil {
		metrics.AverageDurationSec = *avg
	}

	return metrics, nil
}
