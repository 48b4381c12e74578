package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		JWTSecret:         "test-secret",
		AdminUsername:     "admin",
		AdminPassword:     "admin-pass",
		ViewerUsername:    "viewer",
		ViewerPassword:    "viewer-pass",
		SessionTTLMinutes: 60,
	}
}

func login(t *testing.T, cfg *config.AppConfig, username, password string) (*httptest.ResponseRecorder, loginResponse) {
	t.Helper()
	router := mux.NewRouter()
	NewAuthHandler(cfg).SetupAuthRoutes(router)

	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var resp loginResponse
	if recorder.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	}
	return recorder, resp
}

func TestLogin(t *testing.T) {
	cfg := testConfig()

	t.Run("admin credentials issue admin token", func(t *testing.T) {
		recorder, resp := login(t, cfg, "admin", "admin-pass")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, RoleAdmin, resp.Role)
		assert.NotEmpty(t, resp.Token)

		claims := &SessionClaims{}
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
		assert.Equal(t, RoleAdmin, claims.Role)
	})

	t.Run("viewer credentials issue viewer token", func(t *testing.T) {
		recorder, resp := login(t, cfg, "viewer", "viewer-pass")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, RoleViewer, resp.Role)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		recorder, _ := login(t, cfg, "admin", "nope")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("empty password rejected even if configured empty", func(t *testing.T) {
		open := testConfig()
		open.ViewerPassword = ""
		recorder, _ := login(t, open, "viewer", "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func signToken(t *testing.T, secret, role string, expiresAt time.Time) string {
	t.Helper()
	claims := &SessionClaims{
		Username: "tester",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedRouter(secret string) *mux.Router {
	router := mux.NewRouter()
	sub := router.PathPrefix("/api").Subrouter()
	sub.Use(AuthMiddleware(secret))
	sub.Use(WriteProtectionMiddleware)
	sub.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET", "POST")
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := protectedRouter("test-secret")

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/resource", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token accepted", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleViewer, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("token via query parameter accepted", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleViewer, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/api/resource?token="+token, nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleAdmin, time.Now().Add(-time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("token signed with wrong secret rejected", func(t *testing.T) {
		token := signToken(t, "other-secret", RoleAdmin, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestWriteProtection(t *testing.T) {
	router := protectedRouter("test-secret")

	t.Run("viewer can read", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleViewer, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodGet, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("viewer cannot write", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleViewer, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodPost, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("admin can write", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleAdmin, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodPost, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("agent can write", func(t *testing.T) {
		token := signToken(t, "test-secret", RoleAgent, time.Now().Add(time.Hour))
		req := httptest.NewRequest(http.MethodPost, "/api/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
