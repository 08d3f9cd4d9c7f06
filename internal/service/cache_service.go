package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sigasig-engine/internal/engine"
	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

// RemoteCacheRepository abstracts the shared second-level result cache.
type RemoteCacheRepository interface {
	Get(ctx context.Context, fingerprint string, dest interface{}) error
	Set(ctx context.Context, fingerprint string, value interface{}, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// CacheService layers an optional shared Redis cache behind the engine's
// in-memory cache so results survive process restarts and are shared across
// replicas. The in-memory cache remains authoritative; only gate-validated
// results ever reach this layer, and failures degrade to recomputation.
type CacheService struct {
	repo    RemoteCacheRepository
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs the shared cache layer.
func NewCacheService(repo RemoteCacheRepository, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = engine.DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether the shared layer is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a shared cached result. It returns false on any
// miss or error; a broken shared cache must never fail a request.
func (s *CacheService) Get(ctx context.Context, fingerprint string) (engine.ScheduleResult, bool) {
	if !s.Enabled() {
		return engine.ScheduleResult{}, false
	}
	var result engine.ScheduleResult
	if err := s.repo.Get(ctx, fingerprint, &result); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("shared cache get failed", zap.String("fingerprint", fingerprint[:8]), zap.Error(err))
		}
		return engine.ScheduleResult{}, false
	}
	return result, true
}

// Set stores a validated result in the shared layer.
func (s *CacheService) Set(ctx context.Context, fingerprint string, result engine.ScheduleResult) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Set(ctx, fingerprint, result, s.ttl); err != nil {
		s.logger.Warn("shared cache set failed", zap.String("fingerprint", fingerprint[:8]), zap.Error(err))
	}
}

// Clear drops every shared entry.
func (s *CacheService) Clear(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Warn("shared cache clear failed", zap.Error(err))
	}
}
