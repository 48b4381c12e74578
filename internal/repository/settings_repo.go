package repository

import (
	"context"
	"fmt"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"gorm.io/gorm"
)

// GormSettingsRepository handles the singleton settings record.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new settings repository.
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get retrieves the global settings row, creating an empty one on first use.
func (r *GormSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.db.WithContext(ctx).Where("id = ?", domain.SettingsID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = domain.Settings{ID: domain.SettingsID, AutoReplyEnabled: true}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

// Update saves the settings row.
func (r *GormSettingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	settings.ID = domain.SettingsID
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}
