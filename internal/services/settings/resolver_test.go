package settings

import (
	"context"
	"testing"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("environment fills empty credential fields", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		cfg := &config.AppConfig{
			TwilioAccountSID:    "AC-env",
			TwilioAuthToken:     "tok-env",
			WhatsAppAccessToken: "wa-env",
			WhatsAppVerifyToken: "verify-env",
			GeminiAPIKey:        "gem-env",
		}
		resolver := NewResolver(repos, nil, cfg)

		effective, err := resolver.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "AC-env", effective.TwilioAccountSID)
		assert.Equal(t, "tok-env", effective.TwilioAuthToken)
		assert.Equal(t, "wa-env", effective.WhatsAppAccessToken)
		assert.Equal(t, "verify-env", effective.WhatsAppVerifyToken)
		assert.Equal(t, "gem-env", effective.GeminiAPIKey)
	})

	t.Run("stored values win over environment", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedSettings(&domain.Settings{
			ID:                  domain.SettingsID,
			TwilioAccountSID:    "AC-stored",
			WhatsAppVerifyToken: "verify-stored",
		})
		cfg := &config.AppConfig{
			TwilioAccountSID:    "AC-env",
			TwilioAuthToken:     "tok-env",
			WhatsAppVerifyToken: "verify-env",
		}
		resolver := NewResolver(repos, nil, cfg)

		effective, err := resolver.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "AC-stored", effective.TwilioAccountSID)
		assert.Equal(t, "verify-stored", effective.WhatsAppVerifyToken)
		assert.Equal(t, "tok-env", effective.TwilioAuthToken)
	})

	t.Run("resolved copy does not leak into the stored row", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		cfg := &config.AppConfig{TwilioAccountSID: "AC-env"}
		resolver := NewResolver(repos, nil, cfg)

		_, err := resolver.Resolve(ctx)
		require.NoError(t, err)

		stored, err := repos.Settings().Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored.TwilioAccountSID)
	})
}
