package config

import (
	"fmt"
	"os"
	"strconv"
)

// AppConfig holds the service configuration, read from the environment at
// startup. Provider credentials stored in the settings table override these
// at request time when present.
type AppConfig struct {
	Port          string
	PublicBaseURL string // externally reachable base URL for provider callbacks

	// Twilio
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// WhatsApp Business API
	WhatsAppAPIBaseURL    string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string

	// Gemini
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	// Sessions
	JWTSecret         string
	AdminUsername     string
	AdminPassword     string
	ViewerUsername    string
	ViewerPassword    string // viewer login disabled when empty
	SessionTTLMinutes int

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
}

// LoadFromEnv reads the configuration from environment variables.
func LoadFromEnv() *AppConfig {
	return &AppConfig{
		Port:          GetEnvOrDefault("PORT", "8080"),
		PublicBaseURL: GetEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		WhatsAppAPIBaseURL:    GetEnvOrDefault("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppAccessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL: GetEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   GetEnvOrDefault("GEMINI_MODEL", "models/gemini-1.5-flash"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminUsername:     GetEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		ViewerUsername:    GetEnvOrDefault("VIEWER_USERNAME", "viewer"),
		ViewerPassword:    os.Getenv("VIEWER_PASSWORD"),
		SessionTTLMinutes: GetEnvIntOrDefault("SESSION_TTL_MINUTES", 480),

		RedisHost:     GetEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
}

// Validate fails fast on configuration the service cannot run without.
func (c *AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	return nil
}

// GetEnvOrDefault gets an environment variable or returns the default.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault gets an environment variable as int or returns the default.
func GetEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBoolOrDefault gets an environment variable as bool or returns the default.
func GetEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
