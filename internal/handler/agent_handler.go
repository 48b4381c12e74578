package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gorilla/mux"
)

// AgentHandler handles HTTP requests for call-center agents.
type AgentHandler struct {
	repos repository.RepositoryManager
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(repos repository.RepositoryManager) *AgentHandler {
	return &AgentHandler{repos: repos}
}

// SetupAgentRoutes registers agent routes on the API subrouter. Agent
// administration is reserved for admin sessions.
func (h *AgentHandler) SetupAgentRoutes(router *mux.Router) {
	adminOnly := RequireRole(RoleAdmin)
	router.Handle("/agents", adminOnly(http.HandlerFunc(h.CreateAgent))).Methods("POST")
	router.HandleFunc("/agents", h.ListAgents).Methods("GET")
	router.HandleFunc("/agents/{id}", h.GetAgent).Methods("GET")
	router.Handle("/agents/{id}", adminOnly(http.HandlerFunc(h.UpdateAgent))).Methods("PUT")
	router.Handle("/agents/{id}", adminOnly(http.HandlerFunc(h.DeleteAgent))).Methods("DELETE")
}

// CreateAgent creates a new AI or human agent.
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.repos.Agents().Create(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListAgents returns all agents.
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.repos.Agents().GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// GetAgent returns one agent.
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.repos.Agents().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// UpdateAgent applies a partial update.
func (h *AgentHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req domain.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.repos.Agents().Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAgent removes an agent.
func (h *AgentHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repos.Agents().Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
