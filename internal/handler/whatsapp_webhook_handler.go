package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/messaging"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WhatsAppWebhookHandler receives messaging provider webhooks: the verify
// handshake and inbound message notifications.
type WhatsAppWebhookHandler struct {
	service  *messaging.Service
	resolver *settings.Resolver
}

// NewWhatsAppWebhookHandler creates a new webhook handler.
func NewWhatsAppWebhookHandler(service *messaging.Service, resolver *settings.Resolver) *WhatsAppWebhookHandler {
	return &WhatsAppWebhookHandler{service: service, resolver: resolver}
}

// SetupWhatsAppRoutes registers the verify handshake and inbound receiver.
func (h *WhatsAppWebhookHandler) SetupWhatsAppRoutes(router *mux.Router) {
	router.HandleFunc("/whatsapp/webhook", h.Verify).Methods("GET")
	router.HandleFunc("/whatsapp/webhook", h.Receive).Methods("POST")
}

// webhookEnvelope mirrors the provider's notification payload. Fields we do
// not consume are omitted.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text"`
					Image *struct {
						Link    string `json:"link"`
						Caption string `json:"caption"`
					} `json:"image"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Verify answers the provider's subscription handshake: echo the challenge
// when the verify token matches, 403 otherwise.
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	resolved, err := h.resolver.Resolve(r.Context())
	if err != nil {
		logger.Base().Error("failed to load settings for webhook verify", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "settings unavailable")
		return
	}

	if mode == "subscribe" && resolved.WhatsAppVerifyToken != "" && token == resolved.WhatsAppVerifyToken {
		logger.Base().Info("webhook verify handshake accepted")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	logger.Base().Warn("webhook verify handshake rejected",
		zap.String("mode", mode),
		zap.String("remote_addr", r.RemoteAddr),
	)
	writeError(w, http.StatusForbidden, "verification failed")
}

// Receive ingests inbound message notifications. The endpoint always answers
// 200 so the provider does not retry payloads we cannot process.
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		logger.Base().Warn("unparseable webhook payload", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				inbound := &messaging.InboundMessage{
					From:              msg.From,
					ProfileName:       names[msg.From],
					ProviderMessageID: msg.ID,
					Timestamp:         parseWebhookTimestamp(msg.Timestamp),
				}
				switch {
				case msg.Text != nil:
					inbound.Content = msg.Text.Body
				case msg.Image != nil:
					inbound.Content = msg.Image.Caption
					link := msg.Image.Link
					inbound.MediaURL = &link
				default:
					logger.Base().Debug("unsupported message type skipped",
						zap.String("type", msg.Type),
						zap.String("provider_message_id", msg.ID),
					)
					continue
				}

				if _, err := h.service.Ingest(r.Context(), inbound); err != nil {
					logger.Base().Error("failed to ingest inbound message",
						zap.String("provider_message_id", msg.ID),
						zap.Error(err),
					)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// parseWebhookTimestamp parses the provider's unix-seconds timestamp,
// falling back to the current time.
func parseWebhookTimestamp(raw string) time.Time {
	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil && seconds > 0 {
		return time.Unix(seconds, 0)
	}
	return time.Now()
}
