package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AuthHandler issues session tokens for the dashboard.
type AuthHandler struct {
	cfg *config.AppConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg *config.AppConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// SetupAuthRoutes registers authentication routes.
func (h *AuthHandler) SetupAuthRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login validates credentials and returns a signed session token carrying
// the account's role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, ok := h.authenticate(req.Username, req.Password)
	if !ok {
		logger.Base().Warn("failed login attempt",
			zap.String("username", req.Username),
			zap.String("remote_addr", r.RemoteAddr),
		)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	expiresAt := time.Now().Add(time.Duration(h.cfg.SessionTTLMinutes) * time.Minute)
	claims := &SessionClaims{
		Username: req.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		logger.Base().Error("failed to sign session token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	logger.Base().Info("login succeeded",
		zap.String("username", req.Username),
		zap.String("role", role),
	)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     signed,
		Role:      role,
		ExpiresAt: expiresAt,
	})
}

func (h *AuthHandler) authenticate(username, password string) (string, bool) {
	if password == "" {
		return "", false
	}
	if credentialsMatch(username, password, h.cfg.AdminUsername, h.cfg.AdminPassword) {
		return RoleAdmin, true
	}
	if h.cfg.ViewerPassword != "" && credentialsMatch(username, password, h.cfg.ViewerUsername, h.cfg.ViewerPassword) {
		return RoleViewer, true
	}
	return "", false
}

func credentialsMatch(username, password, wantUsername, wantPassword string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword)) == 1
	return userOK && passOK
}
