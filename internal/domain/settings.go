package domain

import (
	"time"
)

// SettingsID is the primary key of the singleton settings row.
const SettingsID = "global"

// Settings is the singleton configuration record read by most provider
// endpoints and mutated by the settings form. Secret fields are masked
// before leaving the API layer.
type Settings struct {
	ID                    string    `json:"id" gorm:"type:varchar(16);primaryKey"`
	TwilioAccountSID      string    `json:"twilio_account_sid" gorm:"type:varchar(64)"`
	TwilioAuthToken       string    `json:"twilio_auth_token" gorm:"type:varchar(64)"`
	TwilioFromNumber      string    `json:"twilio_from_number" gorm:"type:varchar(32)"`
	WhatsAppAccessToken   string    `json:"whatsapp_access_token" gorm:"type:text"`
	WhatsAppPhoneNumberID string    `json:"whatsapp_phone_number_id" gorm:"type:varchar(64)"`
	WhatsAppVerifyToken   string    `json:"whatsapp_verify_token" gorm:"type:varchar(128)"`
	GeminiAPIKey          string    `json:"gemini_api_key" gorm:"type:varchar(128)"`
	GreetingText          string    `json:"greeting_text" gorm:"type:text"`
	WebhookURL            string    `json:"webhook_url" gorm:"type:text"`
	WebhookSecret         string    `json:"webhook_secret" gorm:"type:varchar(128)"`
	AutoReplyEnabled      bool      `json:"auto_reply_enabled" gorm:"default:true"`
	UpdatedAt             time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Settings) TableName() string {
	return "settings"
}
