package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TemplateStatus is the provider approval status of a message template.
type TemplateStatus string

const (
	TemplateStatusPending  TemplateStatus = "pending"
	TemplateStatusApproved TemplateStatus = "approved"
	TemplateStatusRejected TemplateStatus = "rejected"
)

// TemplateVariable describes one `{{name}}` placeholder in a template body.
type TemplateVariable struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Example string `json:"example,omitempty"`
}

// TemplateVariables is the ordered placeholder list, stored as JSONB.
type TemplateVariables []TemplateVariable

// Value implements the driver.Valuer interface for JSONB storage.
func (v TemplateVariables) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements the sql.Scanner interface for JSONB storage.
func (v *TemplateVariables) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into TemplateVariables", value)
	}
	return json.Unmarshal(bytes, v)
}

// Template is a reusable, parameterized outbound message body with
// `{{variable}}` placeholders.
type Template struct {
	ID        string            `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string            `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Content   string            `json:"content" gorm:"type:text;not null"`
	Category  string            `json:"category" gorm:"type:varchar(64)"`
	Status    TemplateStatus    `json:"status" gorm:"type:varchar(16);not null"`
	Language  string            `json:"language" gorm:"type:varchar(8);not null"`
	Variables TemplateVariables `json:"variables" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Template) TableName() string {
	return "whatsapp_templates"
}

// RenameVariableRequest renames one placeholder across a template body.
type RenameVariableRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}
