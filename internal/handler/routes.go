package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	adapters "github.com/gabotrixinc/call-scribe-nexus-sub001/internal/adapters/http"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/realtime"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/call"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/messaging"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/template"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/webhook"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/redis"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/twilio"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandlerManager wires repositories, provider clients, and services, and
// registers all HTTP routes.
type HandlerManager struct {
	cfg         *config.AppConfig
	repoManager repository.RepositoryManager
	redisSvc    *redis.Service
	hub         *realtime.Hub
	resolver    *settings.Resolver

	callService      *call.Service
	messagingService *messaging.Service
	templateService  *template.Service
	dispatcher       *webhook.Dispatcher
}

// NewHandlerManager creates and initializes all services.
func NewHandlerManager(cfg *config.AppConfig) (*HandlerManager, error) {
	repoManager, err := repository.NewRepositoryManager()
	if err != nil {
		logger.Base().Error("failed to connect to database", zap.Error(err))
		return nil, err
	}

	// Redis is optional: without it the service loses cross-instance event
	// fan-out and fast webhook deduplication, both of which degrade safely.
	redisSvc, err := redis.NewService(&redis.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Base().Warn("failed to initialize redis, continuing without it", zap.Error(err))
		redisSvc = nil
	}

	hub := realtime.NewHub(redisSvc)
	hub.Run(context.Background())

	resolver := settings.NewResolver(repoManager, redisSvc, cfg)

	callPlacer := twilio.NewCallService(
		func(ctx context.Context) (string, string, string, error) {
			resolved, err := resolver.Resolve(ctx)
			if err != nil {
				return "", "", "", err
			}
			return resolved.TwilioAccountSID, resolved.TwilioAuthToken, resolved.TwilioFromNumber, nil
		},
		fmt.Sprintf("%s/twilio/voice", cfg.PublicBaseURL),
		fmt.Sprintf("%s/twilio/status", cfg.PublicBaseURL),
	)
	whatsappClient := adapters.NewWhatsAppClient(cfg.WhatsAppAPIBaseURL, resolver)
	geminiClient := adapters.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, resolver)

	// A typed nil would make the interface non-nil.
	var seen messaging.SeenMarker
	if redisSvc != nil {
		seen = redisSvc
	}

	callService := call.NewService(repoManager, callPlacer, hub)
	messagingService := messaging.NewService(repoManager, whatsappClient, geminiClient, seen, hub)
	templateService := template.NewService(repoManager)
	dispatcher := webhook.NewDispatcher(repoManager)

	return &HandlerManager{
		cfg:              cfg,
		repoManager:      repoManager,
		redisSvc:         redisSvc,
		hub:              hub,
		resolver:         resolver,
		callService:      callService,
		messagingService: messagingService,
		templateService:  templateService,
		dispatcher:       dispatcher,
	}, nil
}

// SetupAllRoutes sets up all routes with middleware.
func (hm *HandlerManager) SetupAllRoutes(router *mux.Router) {
	router.Use(CORSMiddleware)
	router.Use(GlobalLoggingMiddleware)

	hm.SetupAuthRoutes(router)
	hm.SetupAPIRoutes(router)
	hm.SetupProviderRoutes(router)
	hm.SetupRealtimeRoutes(router)

	router.HandleFunc("/healthz", hm.Healthz).Methods("GET")

	logger.Base().Info("all application routes registered")
}

// SetupAuthRoutes registers the unauthenticated login endpoint.
func (hm *HandlerManager) SetupAuthRoutes(router *mux.Router) {
	authRouter := router.PathPrefix("/api").Subrouter()
	authRouter.Use(LoggingMiddleware)
	authRouter.Use(ValidationMiddleware)

	authHandler := NewAuthHandler(hm.cfg)
	authHandler.SetupAuthRoutes(authRouter)
}

// SetupAPIRoutes registers the authenticated dashboard API. Reads are open
// to all roles; writes require admin or agent.
func (hm *HandlerManager) SetupAPIRoutes(router *mux.Router) {
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(LoggingMiddleware)
	apiRouter.Use(ValidationMiddleware)
	apiRouter.Use(AuthMiddleware(hm.cfg.JWTSecret))
	apiRouter.Use(WriteProtectionMiddleware)

	callHandler := NewCallHandler(hm.callService)
	callHandler.SetupCallRoutes(apiRouter)

	agentHandler := NewAgentHandler(hm.repoManager)
	agentHandler.SetupAgentRoutes(apiRouter)

	contactHandler := NewContactHandler(hm.repoManager)
	contactHandler.SetupContactRoutes(apiRouter)

	conversationHandler := NewConversationHandler(hm.repoManager, hm.messagingService)
	conversationHandler.SetupConversationRoutes(apiRouter)

	templateHandler := NewTemplateHandler(hm.templateService, hm.messagingService)
	templateHandler.SetupTemplateRoutes(apiRouter)

	settingsHandler := NewSettingsHandler(hm.repoManager, hm.resolver)
	settingsHandler.SetupSettingsRoutes(apiRouter)

	dashboardHandler := NewDashboardHandler(hm.repoManager, hm.hub)
	dashboardHandler.SetupDashboardRoutes(apiRouter)

	dispatchHandler := NewWebhookDispatchHandler(hm.dispatcher)
	dispatchHandler.SetupWebhookDispatchRoutes(apiRouter)

	router.PathPrefix("/api/").HandlerFunc(handleCORS).Methods("OPTIONS")

	logger.Base().Info("dashboard api routes registered")
}

// SetupProviderRoutes registers the unauthenticated provider callback
// endpoints. Providers authenticate through their own mechanisms: the verify
// token handshake and callback signatures.
func (hm *HandlerManager) SetupProviderRoutes(router *mux.Router) {
	twilioHandler := NewTwilioHandler(hm.callService, hm.resolver)
	twilioHandler.SetupTwilioRoutes(router)

	whatsappHandler := NewWhatsAppWebhookHandler(hm.messagingService, hm.resolver)
	whatsappHandler.SetupWhatsAppRoutes(router)

	logger.Base().Info("provider callback routes registered")
}

// SetupRealtimeRoutes registers the websocket event feed.
func (hm *HandlerManager) SetupRealtimeRoutes(router *mux.Router) {
	wsHandler := AuthMiddleware(hm.cfg.JWTSecret)(http.HandlerFunc(hm.hub.HandleWS))
	router.Handle("/ws", wsHandler).Methods("GET")
}

// Healthz reports service and database health.
func (hm *HandlerManager) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := hm.repoManager.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetRepoManager returns the repository manager.
func (hm *HandlerManager) GetRepoManager() repository.RepositoryManager {
	return hm.repoManager
}

// Close releases held connections.
func (hm *HandlerManager) Close() {
	if hm.redisSvc != nil {
		hm.redisSvc.Close()
	}
	hm.repoManager.Close()
}

// handleCORS handles CORS preflight requests for API routes.
func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, HEAD, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
