package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/messaging"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct{}

func (stubSender) SendText(ctx context.Context, to, body string) (string, error) {
	return "wamid.out", nil
}

func (stubSender) SendTemplate(ctx context.Context, to, templateName, language string, parameters []string) (string, error) {
	return "wamid.tpl", nil
}

func newWhatsAppTestRouter(repos *repositorytest.FakeManager) *mux.Router {
	return newWhatsAppTestRouterWithConfig(repos, nil)
}

func newWhatsAppTestRouterWithConfig(repos *repositorytest.FakeManager, cfg *config.AppConfig) *mux.Router {
	service := messaging.NewService(repos, stubSender{}, nil, nil, nil)
	handler := NewWhatsAppWebhookHandler(service, settings.NewResolver(repos, nil, cfg))
	router := mux.NewRouter()
	handler.SetupWhatsAppRoutes(router)
	return router
}

func TestVerifyHandshake(t *testing.T) {
	repos := repositorytest.NewFakeManager()
	repos.SeedSettings(&domain.Settings{
		ID:                  domain.SettingsID,
		WhatsAppVerifyToken: "verify-me",
	})
	router := newWhatsAppTestRouter(repos)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "matching token echoes challenge",
			query:      "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345",
			wantStatus: http.StatusOK,
			wantBody:   "12345",
		},
		{
			name:       "wrong token rejected",
			query:      "hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong mode rejected",
			query:      "hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?"+tt.query, nil)
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, recorder.Body.String())
			}
		})
	}
}

func TestVerifyHandshakeEnvToken(t *testing.T) {
	t.Run("env-configured token passes with empty settings row", func(t *testing.T) {
		cfg := &config.AppConfig{WhatsAppVerifyToken: "env-token"}
		router := newWhatsAppTestRouterWithConfig(repositorytest.NewFakeManager(), cfg)

		req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=env-token&hub.challenge=777", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "777", recorder.Body.String())
	})

	t.Run("stored token wins over env token", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedSettings(&domain.Settings{
			ID:                  domain.SettingsID,
			WhatsAppVerifyToken: "stored-token",
		})
		cfg := &config.AppConfig{WhatsAppVerifyToken: "env-token"}
		router := newWhatsAppTestRouterWithConfig(repos, cfg)

		req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=env-token&hub.challenge=1", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestVerifyHandshakeNoTokenConfigured(t *testing.T) {
	// With no token stored or in the environment every handshake is rejected.
	router := newWhatsAppTestRouter(repositorytest.NewFakeManager())

	req := httptest.NewRequest(http.MethodGet, "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

const inboundPayload = `{
  "entry": [{
    "changes": [{
      "value": {
        "contacts": [{"wa_id": "15550002222", "profile": {"name": "Sam"}}],
        "messages": [{
          "id": "wamid.abc",
          "from": "15550002222",
          "timestamp": "1700000000",
          "type": "text",
          "text": {"body": "hello there"}
        }]
      }
    }]
  }]
}`

func TestReceiveInbound(t *testing.T) {
	t.Run("stores conversation and message", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		router := newWhatsAppTestRouter(repos)

		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(inboundPayload))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)

		conversation, err := repos.Conversations().GetByPhoneNumber(context.Background(), "15550002222")
		require.NoError(t, err)
		require.NotNil(t, conversation)
		assert.Equal(t, "Sam", conversation.ContactName)

		messages := repos.AllMessages()
		require.Len(t, messages, 1)
		assert.Equal(t, "hello there", messages[0].Content)
		require.NotNil(t, messages[0].ProviderMessageID)
		assert.Equal(t, "wamid.abc", *messages[0].ProviderMessageID)
	})

	t.Run("redelivery stores message once", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		router := newWhatsAppTestRouter(repos)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(inboundPayload))
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)
			assert.Equal(t, http.StatusOK, recorder.Code)
		}

		assert.Equal(t, 1, repos.MessageCount())
	})

	t.Run("malformed payload still acknowledged", func(t *testing.T) {
		router := newWhatsAppTestRouter(repositorytest.NewFakeManager())

		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader("not json"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("unsupported message types skipped", func(t *testing.T) {
		payload := `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.x","from":"15550002222","timestamp":"1700000000","type":"sticker"}]}}]}]}`
		repos := repositorytest.NewFakeManager()
		router := newWhatsAppTestRouter(repos)

		req := httptest.NewRequest(http.MethodPost, "/whatsapp/webhook", strings.NewReader(payload))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Zero(t, repos.MessageCount())
	})
}
