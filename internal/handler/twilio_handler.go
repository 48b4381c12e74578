package handler

import (
	"net/http"
	"strconv"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/call"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/twilio"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// defaultGreeting is spoken when no greeting text is configured.
const defaultGreeting = "Hello, thank you for taking our call."

// TwilioHandler receives telephony provider callbacks.
type TwilioHandler struct {
	service  *call.Service
	resolver *settings.Resolver
}

// NewTwilioHandler creates a new Twilio callback handler.
func NewTwilioHandler(service *call.Service, resolver *settings.Resolver) *TwilioHandler {
	return &TwilioHandler{service: service, resolver: resolver}
}

// SetupTwilioRoutes registers provider callback routes.
func (h *TwilioHandler) SetupTwilioRoutes(router *mux.Router) {
	router.HandleFunc("/twilio/status", h.StatusCallback).Methods("POST")
	router.HandleFunc("/twilio/status", h.Liveness).Methods("GET")
	router.HandleFunc("/twilio/voice", h.VoiceInstructions).Methods("POST", "GET")
}

// StatusCallback processes a form-encoded call status callback. The provider
// retries on non-2xx, so the endpoint acknowledges with empty TwiML even
// when the callback cannot be applied.
func (h *TwilioHandler) StatusCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.Base().Warn("unparseable status callback", zap.Error(err))
		h.writeTwiML(w, twilio.EmptyTwiML())
		return
	}

	callSID := r.PostFormValue("CallSid")
	callStatus := r.PostFormValue("CallStatus")

	var durationSec *int
	if raw := r.PostFormValue("CallDuration"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			durationSec = &parsed
		}
	}

	if err := h.service.ProcessStatusCallback(r.Context(), callSID, callStatus, durationSec); err != nil {
		logger.Base().Error("failed to process status callback",
			zap.String("call_sid", callSID),
			zap.String("call_status", callStatus),
			zap.Error(err),
		)
	}

	h.writeTwiML(w, twilio.EmptyTwiML())
}

// Liveness answers provider endpoint checks.
func (h *TwilioHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VoiceInstructions serves the TwiML document for outbound calls. The
// greeting comes from settings.
func (h *TwilioHandler) VoiceInstructions(w http.ResponseWriter, r *http.Request) {
	greeting := defaultGreeting
	resolved, err := h.resolver.Resolve(r.Context())
	if err != nil {
		logger.Base().Warn("failed to load settings for greeting, using default", zap.Error(err))
	} else if resolved.GreetingText != "" {
		greeting = resolved.GreetingText
	}

	h.writeTwiML(w, twilio.GreetingTwiML(greeting))
}

func (h *TwilioHandler) writeTwiML(w http.ResponseWriter, document string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(document))
}
