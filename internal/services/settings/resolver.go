package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/config"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/redis"
	"go.uber.org/zap"
)

// cacheTTL bounds how stale a cached row may be after an update made on
// another instance. Invalidate shortens the window for local updates.
const cacheTTL = 30 * time.Second

// Resolver supplies the effective configuration at request time: the stored
// settings row with empty credential fields filled from the environment,
// behind a short redis cache.
type Resolver struct {
	repos    repository.RepositoryManager
	redisSvc *redis.Service
	cfg      *config.AppConfig
}

// NewResolver creates a settings resolver. redisSvc may be nil, which
// disables caching.
func NewResolver(repos repository.RepositoryManager, redisSvc *redis.Service, cfg *config.AppConfig) *Resolver {
	return &Resolver{
		repos:    repos,
		redisSvc: redisSvc,
		cfg:      cfg,
	}
}

// Resolve returns the effective settings. Values stored through the settings
// form win; environment variables fill the gaps.
func (r *Resolver) Resolve(ctx context.Context) (*domain.Settings, error) {
	if cached := r.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stored, err := r.repos.Settings().Get(ctx)
	if err != nil {
		return nil, err
	}

	effective := *stored
	r.fillFromEnv(&effective)
	r.toCache(ctx, &effective)
	return &effective, nil
}

// Invalidate drops the cached row. Called after settings updates.
func (r *Resolver) Invalidate(ctx context.Context) {
	if r.redisSvc == nil {
		return
	}
	if err := r.redisSvc.DelValue(ctx, r.cacheKey()); err != nil {
		logger.Base().Warn("failed to invalidate settings cache", zap.Error(err))
	}
}

func (r *Resolver) fillFromEnv(s *domain.Settings) {
	if r.cfg == nil {
		return
	}
	fallback(&s.TwilioAccountSID, r.cfg.TwilioAccountSID)
	fallback(&s.TwilioAuthToken, r.cfg.TwilioAuthToken)
	fallback(&s.TwilioFromNumber, r.cfg.TwilioFromNumber)
	fallback(&s.WhatsAppAccessToken, r.cfg.WhatsAppAccessToken)
	fallback(&s.WhatsAppPhoneNumberID, r.cfg.WhatsAppPhoneNumberID)
	fallback(&s.WhatsAppVerifyToken, r.cfg.WhatsAppVerifyToken)
	fallback(&s.GeminiAPIKey, r.cfg.GeminiAPIKey)
}

func fallback(field *string, env string) {
	if *field == "" {
		*field = env
	}
}

func (r *Resolver) cacheKey() string {
	return r.redisSvc.GenerateKey(redis.SETTINGS_CACHE, domain.SettingsID)
}

func (r *Resolver) fromCache(ctx context.Context) *domain.Settings {
	if r.redisSvc == nil {
		return nil
	}
	raw, err := r.redisSvc.GetValue(ctx, r.cacheKey())
	if err != nil {
		if err != redis.ErrKeyNotExist {
			logger.Base().Warn("settings cache read failed", zap.Error(err))
		}
		return nil
	}
	var cached domain.Settings
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		logger.Base().Warn("settings cache entry unreadable, dropping", zap.Error(err))
		r.Invalidate(ctx)
		return nil
	}
	return &cached
}

func (r *Resolver) toCache(ctx context.Context, s *domain.Settings) {
	if r.redisSvc == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.redisSvc.SetValue(ctx, r.cacheKey(), string(raw), cacheTTL); err != nil {
		logger.Base().Warn("settings cache write failed", zap.Error(err))
	}
}
