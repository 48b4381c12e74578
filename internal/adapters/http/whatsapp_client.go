package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"go.uber.org/zap"
)

// SettingsSource supplies the effective provider configuration at request
// time, so credential updates made through the settings form apply without
// a restart.
type SettingsSource interface {
	Resolve(ctx context.Context) (*domain.Settings, error)
}

// WhatsAppSender sends messages through the WhatsApp Business API.
type WhatsAppSender interface {
	SendText(ctx context.Context, to, body string) (messageID string, err error)
	SendTemplate(ctx context.Context, to, templateName, language string, parameters []string) (messageID string, err error)
}

// WhatsAppClient handles communication with the WhatsApp Business (Cloud)
// API. The access token and phone number id are resolved per request.
type WhatsAppClient struct {
	BaseURL    string
	Settings   SettingsSource
	HTTPClient *http.Client
}

// NewWhatsAppClient creates a new WhatsApp Business API client.
func NewWhatsAppClient(baseURL string, settings SettingsSource) *WhatsAppClient {
	return &WhatsAppClient{
		BaseURL:  baseURL,
		Settings: settings,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type whatsappSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText sends a plain text message and returns the provider message id.
func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.send(ctx, payload)
}

// SendTemplate sends a template message with positional body parameters.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, to, templateName, language string, parameters []string) (string, error) {
	params := make([]map[string]string, 0, len(parameters))
	for _, p := range parameters {
		params = append(params, map[string]string{"type": "text", "text": p})
	}

	template := map[string]interface{}{
		"name":     templateName,
		"language": map[string]string{"code": language},
	}
	if len(params) > 0 {
		template["components"] = []map[string]interface{}{
			{"type": "body", "parameters": params},
		}
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template":          template,
	}
	return c.send(ctx, payload)
}

func (c *WhatsAppClient) send(ctx context.Context, payload map[string]interface{}) (string, error) {
	settings, err := c.Settings.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve whatsapp credentials: %w", err)
	}
	if settings.WhatsAppAccessToken == "" || settings.WhatsAppPhoneNumberID == "" {
		return "", fmt.Errorf("whatsapp client not configured: missing access token or phone number id")
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, settings.WhatsAppPhoneNumberID)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+settings.WhatsAppAccessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var response whatsappSendResponse
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(bodyBytes)
		if response.Error != nil {
			msg = response.Error.Message
		}
		return "", fmt.Errorf("whatsapp api error: status=%d, message=%s", resp.StatusCode, msg)
	}

	if len(response.Messages) == 0 {
		return "", fmt.Errorf("whatsapp api returned no message id")
	}

	logger.Base().Info("whatsapp message sent",
		zap.String("message_id", response.Messages[0].ID),
	)
	return response.Messages[0].ID, nil
}
