package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/call"
	"github.com/gorilla/mux"
)

// CallHandler handles HTTP requests for call records.
type CallHandler struct {
	service *call.Service
}

// NewCallHandler creates a new call handler.
func NewCallHandler(service *call.Service) *CallHandler {
	return &CallHandler{service: service}
}

// SetupCallRoutes registers call routes on the API subrouter.
func (h *CallHandler) SetupCallRoutes(router *mux.Router) {
	router.HandleFunc("/calls", h.InitiateCall).Methods("POST")
	router.HandleFunc("/calls", h.ListCalls).Methods("GET")
	router.HandleFunc("/calls/metrics", h.GetMetrics).Methods("GET")
	router.HandleFunc("/calls/{id}", h.GetCall).Methods("GET")
	router.HandleFunc("/calls/{id}/end", h.EndCall).Methods("POST")
	router.HandleFunc("/calls/{id}/abandon", h.AbandonCall).Methods("POST")
}

// InitiateCall places an outbound call and returns the new call record.
func (h *CallHandler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListCalls returns calls, optionally filtered by status.
func (h *CallHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	status := domain.CallStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	calls, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// GetCall returns one call record.
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "call not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// EndCall marks an active call completed.
func (h *CallHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	updated, err := h.service.End(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AbandonCall marks an active call abandoned.
func (h *CallHandler) AbandonCall(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	updated, err := h.service.Abandon(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// GetMetrics returns aggregated call counters. The window defaults to the
// last 24 hours.
func (h *CallHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	metrics, err := h.service.Metrics(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}
