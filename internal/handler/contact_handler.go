package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gorilla/mux"
)

// ContactHandler handles HTTP requests for contacts.
type ContactHandler struct {
	repos repository.RepositoryManager
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(repos repository.RepositoryManager) *ContactHandler {
	return &ContactHandler{repos: repos}
}

// SetupContactRoutes registers contact routes on the API subrouter.
func (h *ContactHandler) SetupContactRoutes(router *mux.Router) {
	router.HandleFunc("/contacts", h.CreateContact).Methods("POST")
	router.HandleFunc("/contacts", h.SearchContacts).Methods("GET")
	router.HandleFunc("/contacts/{id}", h.GetContact).Methods("GET")
	router.HandleFunc("/contacts/{id}", h.UpdateContact).Methods("PUT")
	router.HandleFunc("/contacts/{id}", h.DeleteContact).Methods("DELETE")
}

// CreateContact stores a new contact.
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var contact domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repos.Contacts().Create(r.Context(), &contact); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// SearchContacts returns contacts matching the q query parameter, or all
// contacts when absent.
func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	contacts, err := h.repos.Contacts().Search(r.Context(), query, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// GetContact returns one contact.
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.repos.Contacts().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// UpdateContact saves contact changes.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := h.repos.Contacts().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}

	var contact domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	contact.ID = id

	if err := h.repos.Contacts().Update(r.Context(), &contact); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact removes a contact.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repos.Contacts().Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
