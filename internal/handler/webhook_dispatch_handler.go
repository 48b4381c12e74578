package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/webhook"
	"github.com/gorilla/mux"
)

// WebhookDispatchHandler triggers outbound webhook deliveries from the
// dashboard.
type WebhookDispatchHandler struct {
	dispatcher *webhook.Dispatcher
}

// NewWebhookDispatchHandler creates a new dispatch handler.
func NewWebhookDispatchHandler(dispatcher *webhook.Dispatcher) *WebhookDispatchHandler {
	return &WebhookDispatchHandler{dispatcher: dispatcher}
}

// SetupWebhookDispatchRoutes registers dispatch routes on the API subrouter.
func (h *WebhookDispatchHandler) SetupWebhookDispatchRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/dispatch", h.Dispatch).Methods("POST")
}

// Dispatch delivers one event to the requested endpoint and reports the
// outcome. Upstream failures are a structured result, not an HTTP error.
func (h *WebhookDispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req webhook.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
