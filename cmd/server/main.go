package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/handler"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Server is the call-center administration backend.
type Server struct {
	config         *config.AppConfig
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer wires all services and routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	router := mux.NewRouter()

	handlerManager, err := handler.NewHandlerManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize handler manager: %w", err)
	}
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		router:         router,
		handlerManager: handlerManager,
	}, nil
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Base().Info("starting server", zap.String("addr", addr))
	return server.ListenAndServe()
}

func main() {
	// .env is optional; real deployments inject the environment directly.
	if err := godotenv.Load(); err == nil {
		logger.Base().Info("loaded configuration from .env file")
	}

	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		logger.Base().Error("failed to initialize zap logger, falling back to std log")
	}
	defer logger.Sync()

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Base().Fatal("invalid configuration", zap.Error(err))
	}

	server, err := NewServer(cfg)
	if err != nil {
		logger.Base().Fatal("failed to initialize server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		logger.Base().Fatal("server stopped", zap.Error(err))
	}
}
