package domain

import (
	"time"
)

// Contact represents an address-book entry managed from the dashboard.
type Contact struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string     `json:"name" gorm:"type:varchar(255);not null"`
	Phone         string     `json:"phone" gorm:"type:varchar(32);not null;uniqueIndex"`
	Email         string     `json:"email" gorm:"type:varchar(255)"`
	Tags          string     `json:"tags" gorm:"type:text"` // comma-separated
	Notes         string     `json:"notes" gorm:"type:text"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}
