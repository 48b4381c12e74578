package handler

import (
	"net/http"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/realtime"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DashboardHandler serves aggregated metrics for the dashboard landing page.
type DashboardHandler struct {
	repos repository.RepositoryManager
	hub   *realtime.Hub
}

// NewDashboardHandler creates a new dashboard handler. hub may be nil.
func NewDashboardHandler(repos repository.RepositoryManager, hub *realtime.Hub) *DashboardHandler {
	return &DashboardHandler{repos: repos, hub: hub}
}

// SetupDashboardRoutes registers dashboard routes on the API subrouter.
func (h *DashboardHandler) SetupDashboardRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard/metrics", h.GetMetrics).Methods("GET")
}

type dashboardMetrics struct {
	Calls             *repository.CallMetrics `json:"calls"`
	OpenConversations int64                   `json:"open_conversations"`
	ConnectedClients  int                     `json:"connected_clients"`
	WindowHours       int                     `json:"window_hours"`
}

// GetMetrics aggregates call counters, open conversation count, and the
// connected realtime client count. The window defaults to 24 hours.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	callMetrics, err := h.repos.Calls().Metrics(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	openConversations, err := h.repos.Conversations().CountOpen(r.Context())
	if err != nil {
		logger.Base().Warn("failed to count open conversations", zap.Error(err))
	}

	metrics := dashboardMetrics{
		Calls:             callMetrics,
		OpenConversations: openConversations,
		WindowHours:       hours,
	}
	if h.hub != nil {
		metrics.ConnectedClients = h.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, metrics)
}
