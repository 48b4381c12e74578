package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/messaging"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/template"
	"github.com/gorilla/mux"
)

// TemplateHandler handles HTTP requests for message templates.
type TemplateHandler struct {
	service   *template.Service
	messaging *messaging.Service
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(service *template.Service, messagingService *messaging.Service) *TemplateHandler {
	return &TemplateHandler{service: service, messaging: messagingService}
}

// SetupTemplateRoutes registers template routes on the API subrouter.
func (h *TemplateHandler) SetupTemplateRoutes(router *mux.Router) {
	router.HandleFunc("/templates", h.CreateTemplate).Methods("POST")
	router.HandleFunc("/templates", h.ListTemplates).Methods("GET")
	router.HandleFunc("/templates/{id}", h.GetTemplate).Methods("GET")
	router.HandleFunc("/templates/{id}", h.UpdateTemplate).Methods("PUT")
	router.HandleFunc("/templates/{id}", h.DeleteTemplate).Methods("DELETE")
	router.HandleFunc("/templates/{id}/rename-variable", h.RenameVariable).Methods("POST")
	router.HandleFunc("/templates/{id}/send", h.SendTemplate).Methods("POST")
}

// CreateTemplate stores a new template.
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl domain.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), &tpl)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTemplates returns all templates.
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// GetTemplate returns one template.
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// UpdateTemplate saves template changes.
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var tpl domain.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl.ID = id

	updated, err := h.service.Update(r.Context(), &tpl)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTemplate removes a template.
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameVariable renames one placeholder across the template body and its
// variable list.
func (h *TemplateHandler) RenameVariable(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req domain.RenameVariableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.RenameVariable(r.Context(), id, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type sendTemplateRequest struct {
	PhoneNumber string   `json:"phone_number"`
	Parameters  []string `json:"parameters,omitempty"`
}

// SendTemplate delivers an approved template to a phone number.
func (h *TemplateHandler) SendTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req sendTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	message, err := h.messaging.SendTemplate(r.Context(), req.PhoneNumber, id, req.Parameters)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, message)
}
