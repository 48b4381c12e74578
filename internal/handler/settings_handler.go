package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gorilla/mux"
)

// maskedSecret replaces stored secrets in API responses.
const maskedSecret = "********"

// SettingsHandler handles HTTP requests for the global settings record.
type SettingsHandler struct {
	repos    repository.RepositoryManager
	resolver *settings.Resolver
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(repos repository.RepositoryManager, resolver *settings.Resolver) *SettingsHandler {
	return &SettingsHandler{repos: repos, resolver: resolver}
}

// SetupSettingsRoutes registers settings routes on the API subrouter.
// Updates hold provider credentials, so only admin sessions may write.
func (h *SettingsHandler) SetupSettingsRoutes(router *mux.Router) {
	router.HandleFunc("/settings", h.GetSettings).Methods("GET")
	router.Handle("/settings", RequireRole(RoleAdmin)(http.HandlerFunc(h.UpdateSettings))).Methods("PUT")
}

// GetSettings returns the settings row with secrets masked.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repos.Settings().Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, maskSettings(settings))
}

// UpdateSettings saves the settings form. Masked secret values in the
// payload keep the stored secret.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var incoming domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.repos.Settings().Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	keepMasked(&incoming.TwilioAuthToken, current.TwilioAuthToken)
	keepMasked(&incoming.WhatsAppAccessToken, current.WhatsAppAccessToken)
	keepMasked(&incoming.WhatsAppVerifyToken, current.WhatsAppVerifyToken)
	keepMasked(&incoming.GeminiAPIKey, current.GeminiAPIKey)
	keepMasked(&incoming.WebhookSecret, current.WebhookSecret)

	if err := h.repos.Settings().Update(r.Context(), &incoming); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.resolver.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, maskSettings(&incoming))
}

func keepMasked(field *string, stored string) {
	if *field == maskedSecret {
		*field = stored
	}
}

// maskSettings copies the settings with secret fields replaced by the mask.
func maskSettings(settings *domain.Settings) *domain.Settings {
	masked := *settings
	if masked.TwilioAuthToken != "" {
		masked.TwilioAuthToken = maskedSecret
	}
	if masked.WhatsAppAccessToken != "" {
		masked.WhatsAppAccessToken = maskedSecret
	}
	if masked.WhatsAppVerifyToken != "" {
		masked.WhatsAppVerifyToken = maskedSecret
	}
	if masked.GeminiAPIKey != "" {
		masked.GeminiAPIKey = maskedSecret
	}
	if masked.WebhookSecret != "" {
		masked.WebhookSecret = maskedSecret
	}
	return &masked
}
