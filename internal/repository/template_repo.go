package repository

import (
	"context"
	"fmt"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTemplateRepository handles database operations for message templates.
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new template repository.
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// Create persists a new template.
func (r *GormTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.Status == "" {
		template.Status = domain.TemplateStatusPending
	}
	if template.Language == "" {
		template.Language = "en"
	}
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves a template by ID. Returns (nil, nil) when not found.
func (r *GormTemplateRepository) GetByID(ctx context.Context, id string) (*domain.Template, error) {
	var template domain.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// GetAll returns every template ordered by name.
func (r *GormTemplateRepository) GetAll(ctx context.Context) ([]*domain.Template, error) {
	var templates []*domain.Template
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Update saves the full template record.
func (r *GormTemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

// Delete removes a template.
func (r *GormTemplateRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Template{}).Error; err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}
