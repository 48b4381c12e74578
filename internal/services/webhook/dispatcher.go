package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// Envelope is the JSON body delivered to the webhook endpoint.
type Envelope struct {
	EventType string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// DispatchRequest asks for one delivery. URL and Secret fall back to the
// values stored in settings when omitted. Test mode sends a fixed test
// event; otherwise EventType and Data form the envelope.
type DispatchRequest struct {
	URL       string      `json:"url,omitempty"`
	Secret    string      `json:"secret,omitempty"`
	Test      bool        `json:"test,omitempty"`
	EventType string      `json:"event_type,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// DispatchResult reports the outcome of one delivery attempt. A non-2xx
// upstream answer is a structured failure, not an error.
type DispatchResult struct {
	Delivered  bool   `json:"delivered"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Dispatcher delivers signed event envelopes to caller-supplied endpoints,
// defaulting to the endpoint stored in settings.
type Dispatcher struct {
	repos      repository.RepositoryManager
	httpClient *http.Client
}

// NewDispatcher creates a webhook dispatcher.
func NewDispatcher(repos repository.RepositoryManager) *Dispatcher {
	return &Dispatcher{
		repos: repos,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Sign computes the hex HMAC-SHA256 of the payload with the given secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature against the payload in
// constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Dispatch delivers one event. The signature is computed over the exact
// JSON bytes sent on the wire.
func (d *Dispatcher) Dispatch(ctx context.Context, req *DispatchRequest) (*DispatchResult, error) {
	settings, err := d.repos.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	url := req.URL
	if url == "" {
		url = settings.WebhookURL
	}
	if url == "" {
		return nil, fmt.Errorf("no webhook url supplied or configured")
	}
	secret := req.Secret
	if secret == "" {
		secret = settings.WebhookSecret
	}

	envelope := Envelope{
		EventType: req.EventType,
		Timestamp: time.Now().UTC(),
		Data:      req.Data,
	}
	if req.Test {
		envelope.EventType = "webhook.test"
		envelope.Data = map[string]string{"message": "test delivery"}
	}
	if envelope.EventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}
	if !req.Test && envelope.Data == nil {
		return nil, fmt.Errorf("data is required")
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if secret != "" {
		httpReq.Header.Set(SignatureHeader, Sign(secret, payload))
	}

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		logger.Base().Warn("webhook delivery failed",
			zap.String("event_type", envelope.EventType),
			zap.Error(err),
		)
		return &DispatchResult{Delivered: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	result := &DispatchResult{
		Delivered:  resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	logger.Base().Info("webhook dispatched",
		zap.String("event_type", envelope.EventType),
		zap.Int("status_code", resp.StatusCode),
		zap.Bool("delivered", result.Delivered),
	)
	return result, nil
}
