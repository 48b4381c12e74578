package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/call"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/services/settings"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlacer struct{}

func (stubPlacer) PlaceCall(ctx context.Context, to string) (string, error) { return "CA-stub", nil }

func newTwilioTestRouter(repos *repositorytest.FakeManager) *mux.Router {
	service := call.NewService(repos, stubPlacer{}, nil)
	handler := NewTwilioHandler(service, settings.NewResolver(repos, nil, nil))
	router := mux.NewRouter()
	handler.SetupTwilioRoutes(router)
	return router
}

func postForm(router *mux.Router, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestStatusCallback(t *testing.T) {
	t.Run("completed callback finishes the call", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedCall(&domain.Call{
			ID:            "call-1",
			Status:        domain.CallStatusActive,
			StartTime:     time.Now().Add(-time.Minute),
			TwilioCallSID: "CA123",
		})
		router := newTwilioTestRouter(repos)

		recorder := postForm(router, "/twilio/status", url.Values{
			"CallSid":      {"CA123"},
			"CallStatus":   {"completed"},
			"CallDuration": {"42"},
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "text/xml", recorder.Header().Get("Content-Type"))
		assert.Contains(t, recorder.Body.String(), "<Response")

		stored, err := repos.Calls().GetByID(context.Background(), "call-1")
		require.NoError(t, err)
		assert.Equal(t, domain.CallStatusCompleted, stored.Status)
		require.NotNil(t, stored.Duration)
		assert.Equal(t, 42, *stored.Duration)
		assert.NotNil(t, stored.EndTime)
	})

	t.Run("unknown sid still acknowledged", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		router := newTwilioTestRouter(repos)

		recorder := postForm(router, "/twilio/status", url.Values{
			"CallSid":    {"CA999"},
			"CallStatus": {"completed"},
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "<Response")
	})

	t.Run("liveness check answers ok", func(t *testing.T) {
		router := newTwilioTestRouter(repositorytest.NewFakeManager())

		req := httptest.NewRequest(http.MethodGet, "/twilio/status", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "ok")
	})
}

func TestVoiceInstructions(t *testing.T) {
	t.Run("speaks configured greeting", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedSettings(&domain.Settings{
			ID:           domain.SettingsID,
			GreetingText: "Welcome to support.",
		})
		router := newTwilioTestRouter(repos)

		recorder := postForm(router, "/twilio/voice", url.Values{})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "text/xml", recorder.Header().Get("Content-Type"))
		assert.Contains(t, recorder.Body.String(), "Welcome to support.")
	})

	t.Run("falls back to default greeting", func(t *testing.T) {
		router := newTwilioTestRouter(repositorytest.NewFakeManager())

		recorder := postForm(router, "/twilio/voice", url.Values{})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), defaultGreeting)
	})
}
