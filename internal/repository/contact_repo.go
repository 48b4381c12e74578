package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContactRepository handles database operations for contacts.
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new contact repository.
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Create persists a new contact.
func (r *GormContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	if contact.Phone == "" {
		return fmt.Errorf("contact phone cannot be empty")
	}
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetByID retrieves a contact by ID. Returns (nil, nil) when not found.
func (r *GormContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contact).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

// Search returns contacts whose name or phone matches the query, or all
// contacts when the query is empty.
func (r *GormContactRepository) Search(ctx context.Context, query string, limit, offset int) ([]*domain.Contact, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.db.WithContext(ctx).Model(&domain.Contact{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("name ILIKE ? OR phone LIKE ?", like, like)
	}

	var contacts []*domain.Contact
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return contacts, nil
}

// Update saves the full contact record.
func (r *GormContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

// Delete removes a contact.
func (r *GormContactRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contact{}).Error; err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// TouchLastContact stamps last_contact_at for the contact with the given
// phone number. Missing contacts are not an error.
func (r *GormContactRepository) TouchLastContact(ctx context.Context, phone string, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&domain.Contact{}).
		Where("phone = ?", phone).
		Updates(map[string]interface{}{"last_contact_at": at, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	return nil
}
