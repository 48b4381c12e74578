package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/messaging"
	"github.com/gorilla/mux"
)

// ConversationHandler handles HTTP requests for messaging threads.
type ConversationHandler struct {
	repos   repository.RepositoryManager
	service *messaging.Service
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(repos repository.RepositoryManager, service *messaging.Service) *ConversationHandler {
	return &ConversationHandler{repos: repos, service: service}
}

// SetupConversationRoutes registers conversation routes on the API subrouter.
func (h *ConversationHandler) SetupConversationRoutes(router *mux.Router) {
	router.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	router.HandleFunc("/conversations/{id}", h.GetConversation).Methods("GET")
	router.HandleFunc("/conversations/{id}/messages", h.ListMessages).Methods("GET")
	router.HandleFunc("/conversations/{id}/messages", h.SendMessage).Methods("POST")
	router.HandleFunc("/conversations/{id}/read", h.MarkRead).Methods("POST")
	router.HandleFunc("/conversations/{id}/assign", h.AssignAgent).Methods("POST")
	router.HandleFunc("/conversations/{id}/close", h.CloseConversation).Methods("POST")
}

// ListConversations returns conversations ordered by recency.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	conversations, err := h.repos.Conversations().List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// GetConversation returns one conversation.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.repos.Conversations().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// ListMessages returns the full message history of a conversation.
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	messages, err := h.repos.Messages().ListByConversation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage delivers a dashboard-composed message on the conversation.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req domain.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.service.Send(r.Context(), id, &req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

// MarkRead zeroes the conversation's unread counter.
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repos.Conversations().MarkRead(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignAgentRequest struct {
	AgentID *string `json:"agent_id"` // null unassigns
}

// AssignAgent assigns an AI agent to the conversation, enabling auto-replies
// for it. A null agent id unassigns.
func (h *ConversationHandler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req assignAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversation, err := h.repos.Conversations().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	if req.AgentID != nil && *req.AgentID != "" {
		agent, err := h.repos.Agents().GetByID(r.Context(), *req.AgentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if agent == nil {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		if agent.Type != domain.AgentTypeAI {
			writeError(w, http.StatusBadRequest, "only ai agents can be assigned to conversations")
			return
		}
		conversation.AIAgentID = &agent.ID
	} else {
		conversation.AIAgentID = nil
	}

	if err := h.repos.Conversations().Update(r.Context(), conversation); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

// CloseConversation marks a conversation closed.
func (h *ConversationHandler) CloseConversation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	conversation, err := h.repos.Conversations().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if conversation == nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	conversation.Status = domain.ConversationStatusClosed
	if err := h.repos.Conversations().Update(r.Context(), conversation); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}
