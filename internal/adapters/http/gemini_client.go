package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReplyGenerator produces an assistant reply from a rolling conversation
// context. An empty reply with a nil error means the model declined to
// answer; callers skip sending in that case.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, persona string, history []ChatTurn) (string, error)
}

// ChatTurn is one message of the rolling context window submitted to the
// generative model.
type ChatTurn struct {
	Role    string // "user" or "model"
	Content string
}

// GeminiClient calls the Gemini generateContent REST API. The API key is
// resolved per request.
type GeminiClient struct {
	BaseURL    string
	Model      string
	Settings   SettingsSource
	HTTPClient *http.Client
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(baseURL, model string, settings SettingsSource) *GeminiClient {
	return &GeminiClient{
		BaseURL:  baseURL,
		Model:    model,
		Settings: settings,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReply submits the persona prompt and conversation history and
// returns the first candidate's text.
func (c *GeminiClient) GenerateReply(ctx context.Context, persona string, history []ChatTurn) (string, error) {
	settings, err := c.Settings.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve gemini credentials: %w", err)
	}
	if settings.GeminiAPIKey == "" {
		return "", fmt.Errorf("gemini client not configured: missing api key")
	}

	request := geminiRequest{
		Contents: make([]geminiContent, 0, len(history)),
	}
	if persona != "" {
		request.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: persona}},
		}
	}
	for _, turn := range history {
		request.Contents = append(request.Contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/%s:generateContent?key=%s", c.BaseURL, c.Model, settings.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var response geminiResponse
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("gemini api error: code=%d, message=%s", response.Error.Code, response.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini api error: status=%d", resp.StatusCode)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}
