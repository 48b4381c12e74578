package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsTestRouter(repos *repositorytest.FakeManager) *mux.Router {
	router := mux.NewRouter()
	NewSettingsHandler(repos, settings.NewResolver(repos, nil, nil)).SetupSettingsRoutes(router)
	return router
}

// withSessionRole attaches session claims the way AuthMiddleware would.
func withSessionRole(req *http.Request, role string) *http.Request {
	claims := &SessionClaims{Username: "tester", Role: role}
	return req.WithContext(context.WithValue(req.Context(), claimsContextKey, claims))
}

func TestGetSettingsMasksSecrets(t *testing.T) {
	repos := repositorytest.NewFakeManager()
	repos.SeedSettings(&domain.Settings{
		ID:                  domain.SettingsID,
		TwilioAccountSID:    "AC123",
		TwilioAuthToken:     "super-secret",
		WhatsAppAccessToken: "token-abc",
		WebhookSecret:       "hook-secret",
		AutoReplyEnabled:    true,
	})
	router := newSettingsTestRouter(repos)

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp domain.Settings
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "AC123", resp.TwilioAccountSID)
	assert.Equal(t, maskedSecret, resp.TwilioAuthToken)
	assert.Equal(t, maskedSecret, resp.WhatsAppAccessToken)
	assert.Equal(t, maskedSecret, resp.WebhookSecret)
	assert.NotContains(t, recorder.Body.String(), "super-secret")
}

func TestUpdateSettingsKeepsMaskedSecrets(t *testing.T) {
	repos := repositorytest.NewFakeManager()
	repos.SeedSettings(&domain.Settings{
		ID:              domain.SettingsID,
		TwilioAuthToken: "stored-token",
		WebhookSecret:   "stored-secret",
	})
	router := newSettingsTestRouter(repos)

	// Sending the mask back must not overwrite the stored secrets, while a
	// real value replaces them.
	body := `{
		"twilio_auth_token": "` + maskedSecret + `",
		"webhook_secret": "new-secret",
		"greeting_text": "Hi there",
		"auto_reply_enabled": true
	}`
	req := withSessionRole(httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body)), RoleAdmin)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	stored, err := repos.Settings().Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored-token", stored.TwilioAuthToken)
	assert.Equal(t, "new-secret", stored.WebhookSecret)
	assert.Equal(t, "Hi there", stored.GreetingText)
}

func TestUpdateSettingsRequiresAdmin(t *testing.T) {
	repos := repositorytest.NewFakeManager()
	router := newSettingsTestRouter(repos)

	req := withSessionRole(httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{}`)), RoleAgent)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
